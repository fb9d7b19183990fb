package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/freefall/internal/dynamo"
)

type PlotOptions struct {
	Width  int
	Height int
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 12}
}

// Aligned returns the number of leading indices present in both series.
func Aligned(r *dynamo.Result) int {
	return min(r.Drag.Len(), r.Vacuum.Len())
}

// Plot draws velocity and position charts for both models over their shared
// index range.
func Plot(r *dynamo.Result, opts PlotOptions) string {
	n := Aligned(r)
	if n < 2 {
		return "not enough samples to plot\n"
	}
	end := r.Drag.Time[n-1]

	velocity := asciigraph.PlotMany(
		[][]float64{r.Drag.Velocity[:n], r.Vacuum.Velocity[:n]},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Cyan),
		asciigraph.Caption(fmt.Sprintf("velocity (m/s), 0 to %.2f s: blue = drag, cyan = no drag", end)),
	)

	position := asciigraph.PlotMany(
		[][]float64{r.Drag.Position[:n], r.Vacuum.Position[:n]},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Yellow),
		asciigraph.Caption(fmt.Sprintf("position (m), 0 to %.2f s: red = drag, yellow = no drag", end)),
	)

	var b strings.Builder
	b.WriteString(velocity)
	b.WriteString("\n\n")
	b.WriteString(position)
	b.WriteString("\n")
	return b.String()
}
