package export

import (
	"image/color"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/viz"
)

var (
	comColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255}
	zmpColor  = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 255}
	footColor = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 255}
)

// AxisPlot plots CoM and ZMP positions of one axis against time.
func AxisPlot(res *dynamo.Result, axis string) (*plot.Plot, error) {
	if len(res.Times) == 0 {
		return nil, errors.New("empty result")
	}

	com := make(plotter.XYs, len(res.Times))
	zmp := make(plotter.XYs, len(res.Times))
	for i, t := range res.Times {
		com[i].X, zmp[i].X = t, t
		switch axis {
		case "x":
			com[i].Y, zmp[i].Y = res.CoM[i].X[0], res.ZMP[i].Px
		case "y":
			com[i].Y, zmp[i].Y = res.CoM[i].Y[0], res.ZMP[i].Py
		default:
			return nil, errors.Errorf("unknown axis %q", axis)
		}
	}

	p := plot.New()
	p.Title.Text = "CoM and ZMP (" + axis + ")"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = axis + " (m)"

	if err := addLine(p, "CoM", com, comColor); err != nil {
		return nil, err
	}
	if err := addLine(p, "ZMP", zmp, zmpColor); err != nil {
		return nil, err
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p, nil
}

// TopPlot draws the ground plane: footprints, the CoM path and the ZMP path.
func TopPlot(scene viz.Scene) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Top view"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	for _, fp := range scene.Footsteps {
		poly, err := plotter.NewPolygon(toXYs(fp))
		if err != nil {
			return nil, err
		}
		poly.Color = nil
		poly.LineStyle.Color = footColor
		poly.LineStyle.Width = vg.Points(0.5)
		p.Add(poly)
	}

	if err := addLine(p, "CoM", toXYs(scene.CoM), comColor); err != nil {
		return nil, err
	}
	if err := addLine(p, "ZMP", toXYs(scene.ZMP), zmpColor); err != nil {
		return nil, err
	}
	p.Legend.Top = true
	return p, nil
}

// SavePNG writes com_x.png, com_y.png and top.png into dir and returns the
// written paths.
func SavePNG(res *dynamo.Result, scene viz.Scene, dir string) ([]string, error) {
	var paths []string
	for _, axis := range []string{"x", "y"} {
		p, err := AxisPlot(res, axis)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, "com_"+axis+".png")
		if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
			return paths, errors.Wrapf(err, "save %s", path)
		}
		paths = append(paths, path)
	}

	p, err := TopPlot(scene)
	if err != nil {
		return paths, err
	}
	path := filepath.Join(dir, "top.png")
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return paths, errors.Wrapf(err, "save %s", path)
	}
	return append(paths, path), nil
}

func addLine(p *plot.Plot, name string, xys plotter.XYs, c color.Color) error {
	if len(xys) == 0 {
		return nil
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}
