package walk

import (
	"errors"
	"testing"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/models"
)

func TestApplyCommand(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		wantErr bool
		check   func(Options) bool
	}{
		{"margins", "XY 0.03 0.02", false, func(o Options) bool { return o.MarginX == 0.03 && o.MarginY == 0.02 }},
		{"period", "T 0.05", false, func(o Options) bool { return o.Period == 0.05 && o.Gait.T == 0.05 }},
		{"horizon", "N 20", false, func(o Options) bool { return o.Horizon == 20 }},
		{"extra spaces", "  N   12 ", false, func(o Options) bool { return o.Horizon == 12 }},
		{"unknown", "Z 1", true, nil},
		{"empty", "", true, nil},
		{"missing margin", "XY 0.03", true, nil},
		{"fractional horizon", "N 2.5", true, nil},
		{"not a number", "T fast", true, nil},
		{"period below output", "T 0.001", true, nil},
		{"negative margin", "XY -0.01 0", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewOnline(models.NewBiped(), testOptions(), nil)
			if err != nil {
				t.Fatal(err)
			}
			err = ApplyCommand(g, tt.cmd)
			if tt.wantErr {
				if !errors.Is(err, dynamo.ErrConfiguration) {
					t.Fatalf("got %v, want a configuration error", err)
				}
				if g.dirty {
					t.Error("rejected command marked the generator dirty")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(g.opts) {
				t.Errorf("command not applied: %+v", g.opts)
			}
			if !g.dirty {
				t.Error("accepted command did not mark the generator dirty")
			}
		})
	}
}

func TestCommandsApplyToFixedHorizon(t *testing.T) {
	g, err := NewFixedHorizon(models.NewBiped(), testOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, cmd := range []string{"XY 0.01 0.01", "T 0.02", "N 75"} {
		if err := ApplyCommand(g, cmd); err != nil {
			t.Fatalf("%s: %v", cmd, err)
		}
	}
	o := g.Options()
	if o.MarginX != 0.01 || o.Period != 0.02 || o.Horizon != 75 {
		t.Errorf("options not updated: %+v", o)
	}
}
