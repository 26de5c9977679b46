package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"triguard/pkg/errors"
)

const scoreBins = 20

// WriteScoreChart renders a histogram of the out-of-fold and test score
// distributions as a standalone HTML page. The test series is omitted when
// the held-out partition was empty.
func (w *Writer) WriteScoreChart(runID string, oof, test []float64) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create report directory")
	}

	labels := make([]string, scoreBins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.2f", float64(i)/scoreBins)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Subrogation Score Distribution",
			Width:     "900px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Subrogation Score Distribution",
			Subtitle: fmt.Sprintf("run=%s oof=%d test=%d", runID, len(oof), len(test)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "score"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "claims"}),
	)

	bar.SetXAxis(labels).AddSeries("out_of_fold", histogram(oof))
	if len(test) > 0 {
		bar.AddSeries("test", histogram(test))
	}

	path := filepath.Join(w.dir, "score_distribution.html")
	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create chart file")
	}
	defer file.Close()

	if err := bar.Render(file); err != nil {
		return "", errors.Wrap(err, "render chart")
	}

	w.log.Infof("Wrote score chart to %s", path)
	return path, nil
}

func histogram(scores []float64) []opts.BarData {
	counts := make([]int, scoreBins)
	for _, s := range scores {
		b := int(s * scoreBins)
		if b < 0 {
			b = 0
		}
		if b >= scoreBins {
			b = scoreBins - 1
		}
		counts[b]++
	}

	data := make([]opts.BarData, scoreBins)
	for i, c := range counts {
		data[i] = opts.BarData{Value: c}
	}
	return data
}
