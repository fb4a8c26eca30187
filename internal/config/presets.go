package config

// Presets are keyed by formulation, then by name. Each preset is a delta
// applied over DefaultConfig by GetPreset.
var Presets = map[string]map[string]func(*Config){
	FormulationVelocity: {
		"stand": func(c *Config) {
			c.Duration = 3.0
		},
		"walk": func(c *Config) {
			c.Reference = ReferenceConfig{VX: 0.2}
		},
		"fast": func(c *Config) {
			c.Reference = ReferenceConfig{VX: 0.35}
			c.Gait.StepPeriod = 0.7
		},
		"turn": func(c *Config) {
			c.Reference = ReferenceConfig{VX: 0.15, YawRate: 0.2}
			c.Duration = 10.0
		},
		"sidestep": func(c *Config) {
			c.Reference = ReferenceConfig{VY: 0.1}
		},
	},
	FormulationFixed: {
		"straight": func(c *Config) {
			c.Formulation = FormulationFixed
			c.Preview = PreviewConfig{Horizon: 75, Period: 0.02, OutputPeriod: 0.005}
			c.Robot.ComHeight = 0.80
			c.Constraints = ConstraintConfig{MarginX: 0.04, MarginY: 0.04}
		},
		"short": func(c *Config) {
			c.Formulation = FormulationFixed
			c.Preview = PreviewConfig{Horizon: 75, Period: 0.02, OutputPeriod: 0.005}
			c.Robot.ComHeight = 0.80
			c.Constraints = ConstraintConfig{MarginX: 0.04, MarginY: 0.04}
			c.Plan.Steps = 3
		},
		"slow": func(c *Config) {
			c.Formulation = FormulationFixed
			c.Preview = PreviewConfig{Horizon: 75, Period: 0.02, OutputPeriod: 0.005}
			c.Robot.ComHeight = 0.80
			c.Constraints = ConstraintConfig{MarginX: 0.04, MarginY: 0.04}
			c.Plan.SingleTime = 1.2
			c.Plan.DoubleTime = 0.3
		},
	},
}

// GetPreset returns a fresh configuration for the named preset, or nil.
func GetPreset(formulation, preset string) *Config {
	byName, ok := Presets[formulation]
	if !ok {
		return nil
	}
	apply, ok := byName[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Formulation = formulation
	apply(cfg)
	return cfg
}

// FindPreset looks a preset up by name across formulations.
func FindPreset(preset string) *Config {
	for formulation := range Presets {
		if cfg := GetPreset(formulation, preset); cfg != nil {
			return cfg
		}
	}
	return nil
}

func ListPresets(formulation string) []string {
	byName, ok := Presets[formulation]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	return names
}
