package modelselection

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/forestcv/forestcv/pkg/errors"
)

// SaveScoreChart renders the mean cross-validation score of every grid
// candidate as a bar chart and writes it to path (format chosen by
// extension, e.g. .png or .svg). Useful for eyeballing how flat the grid is
// around the selected candidate.
func SaveScoreChart(sr *SearchResult, path string) error {
	if len(sr.Results) == 0 {
		return errors.New("empty search result")
	}

	values := make(plotter.Values, len(sr.Results))
	names := make([]string, len(sr.Results))
	for i, r := range sr.Results {
		values[i] = r.Mean
		names[i] = r.Candidate.String()
	}

	p := plot.New()
	p.Title.Text = "Cross-validated " + sr.Metric + " by candidate"
	p.Y.Label.Text = sr.Metric

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return errors.Wrap(err, "building bar chart")
	}
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = -0.6
	p.X.Tick.Label.XAlign = -0.9

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "saving score chart")
	}
	return nil
}
