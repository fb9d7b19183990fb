package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/freefall/internal/dynamo"
)

type Point struct{ X, Y float64 }

type Line struct {
	Points []Point
	Stroke string
	Dashed bool
	Label  string
}

// Quantity picks which series column goes on the y axis.
type Quantity int

const (
	Position Quantity = iota
	Velocity
)

// ResultToSVG charts one quantity against time for both models over every
// retained sample. Series of different length are drawn as they are.
func ResultToSVG(r *dynamo.Result, q Quantity, width, height int) string {
	pick := func(s dynamo.TimeSeries) []float64 {
		if q == Velocity {
			return s.Velocity
		}
		return s.Position
	}
	toPoints := func(s dynamo.TimeSeries) []Point {
		ys := pick(s)
		pts := make([]Point, s.Len())
		for i := range pts {
			pts[i] = Point{X: s.Time[i], Y: ys[i]}
		}
		return pts
	}

	stroke := "#ff4444"
	if q == Velocity {
		stroke = "#4488ff"
	}

	return LinesToSVG([]Line{
		{Points: toPoints(r.Drag), Stroke: stroke, Label: "drag"},
		{Points: toPoints(r.Vacuum), Stroke: stroke, Dashed: true, Label: "no drag"},
	}, width, height)
}

// LinesToSVG draws polylines on shared axes. Lines with fewer than two
// points are skipped; an empty string means nothing was drawable.
func LinesToSVG(lines []Line, width, height int) string {
	first := true
	var minX, maxX, minY, maxY float64
	for _, l := range lines {
		if len(l.Points) < 2 {
			continue
		}
		for _, p := range l.Points {
			if first {
				minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
				first = false
				continue
			}
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
	}
	if first {
		return ""
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, l := range lines {
		if len(l.Points) < 2 {
			continue
		}

		dash := ""
		if l.Dashed {
			dash = ` stroke-dasharray="6,4"`
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, l.Stroke, dash))

		for i, p := range l.Points {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)

			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString(`"><title>` + l.Label + "</title></path>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
