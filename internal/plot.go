package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderPlot writes an HTML piano-roll of seq to w: one point per hit, time
// on the x axis, pitch on the y axis, velocity as point size.
func RenderPlot(w io.Writer, title string, seq Sequence) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "seconds", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "pitch", Type: "value", Min: 34, Max: 54}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	data := make([]opts.ScatterData, 0, len(seq.Notes))
	for _, n := range seq.Notes {
		data = append(data, opts.ScatterData{
			Value:      []interface{}{n.Start, n.Pitch},
			SymbolSize: 4 + 10*n.Velocity/127,
		})
	}

	scatter.AddSeries("hits", data)
	return scatter.Render(w)
}

// WritePlotFile renders seq to an HTML file at path.
func WritePlotFile(path, title string, seq Sequence) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}

	if err := RenderPlot(f, title, seq); err != nil {
		f.Close()
		return fmt.Errorf("render plot: %w", err)
	}

	return f.Close()
}
