package export

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r2"
	"gonum.org/v1/plot/plotter"

	"github.com/san-kum/walkgen/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.Pixels()
	width := float64(pw) * scale
	height := float64(ph) * scale

	var sb strings.Builder
	header(&sb, width, height)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
				float64(x)*scale+scale/2, float64(y)*scale+scale/2, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SceneToSVG draws footprints as outlines and the CoM and ZMP paths as
// polylines, scaled to fit width x height with y pointing up.
func SceneToSVG(scene viz.Scene, width, height int) string {
	var all []r2.Point
	all = append(all, scene.CoM...)
	all = append(all, scene.ZMP...)
	for _, fp := range scene.Footsteps {
		all = append(all, fp...)
	}
	if len(all) < 2 {
		return ""
	}

	bounds := r2.RectFromPoints(all...)
	pad := r2.Point{X: bounds.X.Length() * 0.1, Y: bounds.Y.Length() * 0.1}
	if pad.X == 0 {
		pad.X = 0.1
	}
	if pad.Y == 0 {
		pad.Y = 0.1
	}
	bounds = bounds.Expanded(pad)

	project := func(p r2.Point) (float64, float64) {
		x := (p.X - bounds.X.Lo) / bounds.X.Length() * float64(width)
		y := float64(height) - (p.Y-bounds.Y.Lo)/bounds.Y.Length()*float64(height)
		return x, y
	}

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	for _, fp := range scene.Footsteps {
		writePath(&sb, fp, project, "#7f7f7f", true)
	}
	writePath(&sb, scene.ZMP, project, "#ff4040", false)
	writePath(&sb, scene.CoM, project, "#00ff00", false)
	sb.WriteString("</svg>")
	return sb.String()
}

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

func writePath(sb *strings.Builder, pts []r2.Point, project func(r2.Point) (float64, float64), stroke string, closed bool) {
	if len(pts) < 2 {
		return
	}
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	for i, p := range pts {
		x, y := project(p)
		if i == 0 {
			fmt.Fprintf(sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	if closed {
		sb.WriteString(" Z")
	}
	sb.WriteString("\"/>\n")
}

func toXYs(pts []r2.Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i] = plotter.XY{X: p.X, Y: p.Y}
	}
	return xys
}
