package viz

import (
	"strings"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/models"
)

func TestViewportProject(t *testing.T) {
	c := NewCanvas(40, 10)
	v := Viewport{Center: r2.Point{X: 1, Y: 1}, Scale: 10}

	tests := []struct {
		p      r2.Point
		wx, wy int
	}{
		{r2.Point{X: 1, Y: 1}, 40, 20},
		{r2.Point{X: 2, Y: 1}, 50, 20},
		{r2.Point{X: 1, Y: 2}, 40, 10},
	}
	for _, tt := range tests {
		x, y := v.Project(c, tt.p)
		if x != tt.wx || y != tt.wy {
			t.Errorf("Project(%v) = (%d, %d), want (%d, %d)", tt.p, x, y, tt.wx, tt.wy)
		}
	}
}

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(3, 5)
	if !c.IsSet(3, 5) {
		t.Fatal("dot not set")
	}
	c.Set(-1, 0)
	c.Set(100, 100)
	c.Clear()
	if c.IsSet(3, 5) {
		t.Error("dot survived Clear")
	}
	if got := strings.Count(c.String(), "\n"); got != 2 {
		t.Errorf("expected 2 rows, got %d", got)
	}
}

func TestSceneFitShowsEverything(t *testing.T) {
	robot := models.NewBiped()
	res := &dynamo.Result{
		CoM: []dynamo.CoMState{{X: [3]float64{0}}, {X: [3]float64{1}, Y: [3]float64{0.2}}},
		ZMP: []dynamo.ZMPSample{{Px: 0, Py: 0.1}, {Px: 1, Py: -0.1}},
		Footsteps: []dynamo.FootPosition{
			{X: 0.5, Y: -0.1, StepType: dynamo.StepRight},
		},
	}
	scene := SceneFromResult(res, robot)
	if len(scene.Footsteps) != 1 || len(scene.CoM) != 2 {
		t.Fatalf("unexpected scene %+v", scene)
	}

	c := NewCanvas(40, 12)
	v := scene.Fit(c)
	w, h := c.Pixels()
	for _, p := range append(scene.CoM, scene.Footsteps[0]...) {
		x, y := v.Project(c, p)
		if x < 0 || y < 0 || x >= w || y >= h {
			t.Errorf("%v projected outside the canvas at (%d, %d)", p, x, y)
		}
	}
	scene.Draw(c, v)
	if strings.Trim(c.String(), "\u2800\n") == "" {
		t.Error("nothing drawn")
	}
}

func TestNextThemeCycles(t *testing.T) {
	defer SetTheme(CurrentTheme.Name)

	SetTheme("phosphor")
	NextTheme()
	if CurrentTheme.Name != "paper" {
		t.Errorf("expected paper, got %s", CurrentTheme.Name)
	}
	NextTheme()
	if CurrentTheme.Name != Themes[0].Name {
		t.Errorf("expected wrap to %s, got %s", Themes[0].Name, CurrentTheme.Name)
	}
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
}
