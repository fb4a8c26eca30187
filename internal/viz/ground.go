package viz

import (
	"github.com/golang/geo/r2"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/hull"
	"github.com/san-kum/walkgen/internal/models"
)

// Scene is a top view of a walk.
type Scene struct {
	CoM, ZMP  []r2.Point
	Footsteps []hull.Polygon
	// Support is the current support polygon, drawn with a cross at its
	// centroid.
	Support hull.Polygon
}

// FootOutline returns the sole of f as a polygon.
func FootOutline(robot models.Robot, foot dynamo.Foot, f dynamo.FootPosition) hull.Polygon {
	hw, hh, _ := robot.FootSize(foot)
	p, err := hull.Footprint{Center: r2.Point{X: f.X, Y: f.Y}, Yaw: f.Yaw, HalfWidth: hw, HalfHeight: hh}.Rectangle(0, 0)
	if err != nil {
		return nil
	}
	return p
}

// SceneFromResult collects the traces of a finished run.
func SceneFromResult(res *dynamo.Result, robot models.Robot) Scene {
	var s Scene
	for i := range res.CoM {
		s.CoM = append(s.CoM, r2.Point{X: res.CoM[i].X[0], Y: res.CoM[i].Y[0]})
	}
	for _, z := range res.ZMP {
		s.ZMP = append(s.ZMP, r2.Point{X: z.Px, Y: z.Py})
	}
	for _, f := range res.Footsteps {
		foot := dynamo.LeftFoot
		if f.StepType == dynamo.StepRight {
			foot = dynamo.RightFoot
		}
		if p := FootOutline(robot, foot, f); p != nil {
			s.Footsteps = append(s.Footsteps, p)
		}
	}
	return s
}

// Fit returns a viewport showing every point of the scene.
func (s Scene) Fit(c *Canvas) Viewport {
	pts := append(append([]r2.Point{}, s.CoM...), s.ZMP...)
	for _, f := range s.Footsteps {
		pts = append(pts, f...)
	}
	if len(pts) == 0 {
		return Viewport{Scale: 100}
	}
	rect := r2.RectFromPoints(pts...)
	w, h := c.Pixels()
	size := rect.Size()
	scale := 100.0
	if size.X > 0 {
		scale = 0.9 * float64(w) / size.X
	}
	if size.Y > 0 && 0.9*float64(h)/size.Y < scale {
		scale = 0.9 * float64(h) / size.Y
	}
	return Viewport{Center: rect.Center(), Scale: scale}
}

func (s Scene) Draw(c *Canvas, v Viewport) {
	for _, f := range s.Footsteps {
		c.DrawPolygon(v, f)
	}
	if len(s.Support) > 0 {
		c.DrawPolygon(v, s.Support)
		c.DrawCross(v, s.Support.Centroid(), 1)
	}
	c.DrawPath(v, s.CoM)
	for i, p := range s.ZMP {
		// dotted
		if i%4 == 0 {
			c.Set(v.Project(c, p))
		}
	}
}
