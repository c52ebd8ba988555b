// Package chart renders a month's per-category totals as a PNG bar
// chart.
package chart

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"bilancio/internal/core"
)

var barWidth = vg.Points(30)

// RenderMonthTotals writes a bar chart of ov's per-category totals to
// path. The image format follows the path extension; .png is the usual
// choice.
func RenderMonthTotals(ov core.MonthOverview, path string) error {
	p, err := buildPlot(ov)
	if err != nil {
		return err
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

// WriteMonthTotals renders the same bar chart as a PNG stream, for
// serving directly over HTTP.
func WriteMonthTotals(ov core.MonthOverview, w io.Writer) error {
	p, err := buildPlot(ov)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

func buildPlot(ov core.MonthOverview) (*plot.Plot, error) {
	if len(ov.ByCategory) == 0 {
		return nil, fmt.Errorf("no categories to plot for %04d-%02d", ov.Year, ov.Month)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Spese per categoria %04d-%02d", ov.Year, ov.Month)
	p.Y.Label.Text = "EUR"

	values := make(plotter.Values, len(ov.ByCategory))
	names := make([]string, len(ov.ByCategory))
	for i, ca := range ov.ByCategory {
		values[i] = float64(ca.Amount.Cents) / 100
		names[i] = ca.Name
	}

	bars, err := plotter.NewBarChart(values, barWidth)
	if err != nil {
		return nil, fmt.Errorf("build bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)

	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}
