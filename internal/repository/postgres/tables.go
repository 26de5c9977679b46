package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"triguard/internal/domain/claims"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// Compile-time check
var _ claims.Repository = (*TablesRepository)(nil)

// TablesRepository loads the five staging tables via sqlx.
// Text attributes are COALESCEd to empty strings so the frame's
// "empty cell means missing" convention holds regardless of how the
// upstream extract populated the staging layer.
type TablesRepository struct {
	db     *sqlx.DB
	schema string
	log    *logger.Logger
}

// NewTablesRepository creates a repository over the given staging schema
func NewTablesRepository(db *sqlx.DB, schema string) *TablesRepository {
	return &TablesRepository{
		db:     db,
		schema: schema,
		log:    logger.Get().With("component", "postgres_tables"),
	}
}

// LoadTables reads all five tables from the staging schema
func (r *TablesRepository) LoadTables(ctx context.Context) (*claims.Tables, error) {
	t := &claims.Tables{}

	if err := r.loadClaims(ctx, &t.Claims); err != nil {
		return nil, errors.Wrap(err, "load claim table")
	}
	if err := r.loadAccidents(ctx, &t.Accidents); err != nil {
		return nil, errors.Wrap(err, "load accident table")
	}
	if err := r.loadVehicles(ctx, &t.Vehicles); err != nil {
		return nil, errors.Wrap(err, "load vehicle table")
	}
	if err := r.loadDrivers(ctx, &t.Drivers); err != nil {
		return nil, errors.Wrap(err, "load driver table")
	}
	if err := r.loadPolicyholders(ctx, &t.Policyholders); err != nil {
		return nil, errors.Wrap(err, "load policyholder table")
	}

	r.log.Infof("Loaded tables: claim=%d accident=%d vehicle=%d driver=%d policyholder=%d",
		len(t.Claims), len(t.Accidents), len(t.Vehicles), len(t.Drivers), len(t.Policyholders))

	return t, nil
}

func (r *TablesRepository) loadClaims(ctx context.Context, dest *[]claims.Claim) error {
	query := fmt.Sprintf(`
		SELECT
			COALESCE(claim_number, '')            AS claim_number,
			COALESCE(subrogation, '')             AS subrogation,
			COALESCE(claim_est_payout, '')        AS claim_est_payout,
			COALESCE(liab_prct, '')               AS liab_prct,
			COALESCE(claim_date, '')              AS claim_date,
			COALESCE(claim_day_of_week, '')       AS claim_day_of_week,
			COALESCE(channel, '')                 AS channel,
			COALESCE(zip_code, '')                AS zip_code,
			COALESCE(witness_present_ind, '')     AS witness_present_ind,
			COALESCE(policy_report_filed_ind, '') AS policy_report_filed_ind,
			COALESCE(in_network_bodyshop, '')     AS in_network_bodyshop,
			COALESCE(accident_key, 0)             AS accident_key,
			COALESCE(policyholder_key, 0)         AS policyholder_key,
			COALESCE(vehicle_key, 0)              AS vehicle_key,
			COALESCE(driver_key, 0)               AS driver_key
		FROM %s."claim"`, r.schema)

	return r.db.SelectContext(ctx, dest, query)
}

func (r *TablesRepository) loadAccidents(ctx context.Context, dest *[]claims.Accident) error {
	query := fmt.Sprintf(`
		SELECT
			accident_key,
			COALESCE(accident_site, '') AS accident_site,
			COALESCE(accident_type, '') AS accident_type
		FROM %s."accident"`, r.schema)

	return r.db.SelectContext(ctx, dest, query)
}

func (r *TablesRepository) loadVehicles(ctx context.Context, dest *[]claims.Vehicle) error {
	query := fmt.Sprintf(`
		SELECT
			vehicle_key,
			COALESCE(vehicle_made_year, '') AS vehicle_made_year,
			COALESCE(vehicle_category, '')  AS vehicle_category,
			COALESCE(vehicle_price, '')     AS vehicle_price,
			COALESCE(vehicle_color, '')     AS vehicle_color,
			COALESCE(vehicle_weight, '')    AS vehicle_weight,
			COALESCE(vehicle_mileage, '')   AS vehicle_mileage,
			COALESCE(age_of_vehicle, '')    AS age_of_vehicle
		FROM %s."vehicle"`, r.schema)

	return r.db.SelectContext(ctx, dest, query)
}

func (r *TablesRepository) loadDrivers(ctx context.Context, dest *[]claims.Driver) error {
	query := fmt.Sprintf(`
		SELECT
			driver_key,
			COALESCE(year_of_born, '')  AS year_of_born,
			COALESCE(gender, '')        AS gender,
			COALESCE("age_of_DL", '')   AS "age_of_DL",
			COALESCE(safety_rating, '') AS safety_rating
		FROM %s."driver"`, r.schema)

	return r.db.SelectContext(ctx, dest, query)
}

func (r *TablesRepository) loadPolicyholders(ctx context.Context, dest *[]claims.Policyholder) error {
	query := fmt.Sprintf(`
		SELECT
			policyholder_key,
			COALESCE(annual_income, '')          AS annual_income,
			COALESCE(high_education_ind, '')     AS high_education_ind,
			COALESCE(email_or_tel_available, '') AS email_or_tel_available,
			COALESCE(address_change_ind, '')     AS address_change_ind,
			COALESCE(living_status, '')          AS living_status,
			COALESCE(past_num_of_claims, '')     AS past_num_of_claims
		FROM %s."policyholder"`, r.schema)

	return r.db.SelectContext(ctx, dest, query)
}
