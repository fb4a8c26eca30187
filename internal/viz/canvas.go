package viz

import (
	"math"
	"strings"

	"github.com/golang/geo/r2"
)

// Braille patterns hold 2x4 dots per cell:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// starting at U+2800.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Pixels returns the canvas size in dots.
func (c *Canvas) Pixels() (int, int) {
	return c.Width * 2, c.Height * 4
}

// Set turns on the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Viewport maps ground coordinates in meters onto canvas dots. The ground x
// axis points right, y points up.
type Viewport struct {
	Center r2.Point
	// Scale is the number of dots per meter.
	Scale float64
}

func (v Viewport) Project(c *Canvas, p r2.Point) (int, int) {
	w, h := c.Pixels()
	x := float64(w)/2 + (p.X-v.Center.X)*v.Scale
	y := float64(h)/2 - (p.Y-v.Center.Y)*v.Scale
	return int(math.Round(x)), int(math.Round(y))
}

// Follow recenters v on p when p leaves the middle half of the canvas.
func (v *Viewport) Follow(c *Canvas, p r2.Point) {
	w, h := c.Pixels()
	hx, hy := float64(w)/4/v.Scale, float64(h)/4/v.Scale
	if math.Abs(p.X-v.Center.X) > hx || math.Abs(p.Y-v.Center.Y) > hy {
		v.Center = p
	}
}

// DrawPath joins consecutive ground points.
func (c *Canvas) DrawPath(v Viewport, pts []r2.Point) {
	for i := 1; i < len(pts); i++ {
		x0, y0 := v.Project(c, pts[i-1])
		x1, y1 := v.Project(c, pts[i])
		c.DrawLine(x0, y0, x1, y1)
	}
	if len(pts) == 1 {
		c.Set(v.Project(c, pts[0]))
	}
}

// DrawPolygon draws the closed outline of pts.
func (c *Canvas) DrawPolygon(v Viewport, pts []r2.Point) {
	if len(pts) < 2 {
		c.DrawPath(v, pts)
		return
	}
	c.DrawPath(v, append(append([]r2.Point{}, pts...), pts[0]))
}

// DrawCross marks p with a small cross of the given half size in dots.
func (c *Canvas) DrawCross(v Viewport, p r2.Point, size int) {
	x, y := v.Project(c, p)
	c.DrawLine(x-size, y, x+size, y)
	c.DrawLine(x, y-size, x, y+size)
}
