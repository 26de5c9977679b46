package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"triguard/pkg/logger"
)

// CustomCollector exposes row counts from the staging schema so dashboards
// can watch data volume drift between runs.
type CustomCollector struct {
	log    *logger.Logger
	db     *sqlx.DB
	schema string

	stagingRows     *prometheus.Desc
	predictionsRows *prometheus.Desc
}

// NewCustomCollector creates a collector over the staging schema
func NewCustomCollector(log *logger.Logger, db *sqlx.DB, schema string) *CustomCollector {
	return &CustomCollector{
		log:    log,
		db:     db,
		schema: schema,

		stagingRows: prometheus.NewDesc(
			"triguard_staging_rows",
			"Row count per staging table",
			[]string{"table"}, nil,
		),
		predictionsRows: prometheus.NewDesc(
			"triguard_predictions_rows",
			"Total persisted prediction rows",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stagingRows
	ch <- c.predictionsRows
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, table := range []string{"claim", "accident", "vehicle", "driver", "policyholder"} {
		var count float64
		query := `SELECT COUNT(*) FROM ` + c.schema + `."` + table + `"`
		if err := c.db.GetContext(ctx, &count, query); err != nil {
			c.log.Debugf("Failed to count %s rows: %v", table, err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.stagingRows, prometheus.GaugeValue, count, table)
	}

	var predictions float64
	query := `SELECT COUNT(*) FROM ` + c.schema + `."subrogation_prediction"`
	if err := c.db.GetContext(ctx, &predictions, query); err != nil {
		c.log.Debugf("Failed to count prediction rows: %v", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.predictionsRows, prometheus.GaugeValue, predictions)
}
