package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/walkgen/internal/dynamo"
)

const (
	DefaultHorizon        = 16
	DefaultPeriod         = 0.1
	DefaultOutputPeriod   = 0.005
	DefaultDuration       = 8.0
	DefaultComHeight      = 0.814
	DefaultFootHalfWidth  = 0.1
	DefaultFootHalfHeight = 0.05
	DefaultSoleHeight     = 0.1
	DefaultFeetDistance   = 0.2
	DefaultMargin         = 0.02
	DefaultJerkWeight     = 0.00001
	DefaultVelocityWeight = 1.0
	DefaultCoPWeight      = 10.0
	DefaultAlpha          = 200.0
	DefaultBeta           = 1000.0
)

// Formulations understood by the experiment runner.
const (
	FormulationVelocity = "velocity"
	FormulationFixed    = "fixed"
)

type Config struct {
	Formulation string           `yaml:"formulation"`
	Duration    float64          `yaml:"duration"`
	Robot       RobotConfig      `yaml:"robot"`
	Preview     PreviewConfig    `yaml:"preview"`
	Weights     WeightConfig     `yaml:"weights"`
	Constraints ConstraintConfig `yaml:"constraints"`
	Gait        GaitConfig       `yaml:"gait"`
	Reference   ReferenceConfig  `yaml:"reference"`
	Plan        PlanConfig       `yaml:"plan"`
	Commands    []string         `yaml:"commands"`
}

type RobotConfig struct {
	ComHeight      float64 `yaml:"com_height"`
	FootHalfWidth  float64 `yaml:"foot_half_width"`
	FootHalfHeight float64 `yaml:"foot_half_height"`
	SoleHeight     float64 `yaml:"sole_height"`
	FeetDistance   float64 `yaml:"feet_distance"`
}

type PreviewConfig struct {
	Horizon      int     `yaml:"horizon"`
	Period       float64 `yaml:"period"`
	OutputPeriod float64 `yaml:"output_period"`
}

// WeightConfig holds the objective weights. Jerk, Velocity and CoP drive
// the velocity formulation, Alpha and Beta the fixed-horizon one.
type WeightConfig struct {
	Jerk     float64 `yaml:"jerk"`
	Velocity float64 `yaml:"velocity"`
	CoP      float64 `yaml:"cop"`
	Alpha    float64 `yaml:"alpha"`
	Beta     float64 `yaml:"beta"`
}

type ConstraintConfig struct {
	MarginX float64 `yaml:"margin_x"`
	MarginY float64 `yaml:"margin_y"`
}

type GaitConfig struct {
	StepPeriod float64 `yaml:"step_period"`
	DSPeriod   float64 `yaml:"ds_period"`
	DSSSPeriod float64 `yaml:"dsss_period"`
	StepsSSDS  int     `yaml:"steps_ssds"`
}

type ReferenceConfig struct {
	VX      float64 `yaml:"vx"`
	VY      float64 `yaml:"vy"`
	YawRate float64 `yaml:"yaw_rate"`
}

// PlanConfig describes the footstep plan fed to the fixed-horizon
// formulation.
type PlanConfig struct {
	Steps      int     `yaml:"steps"`
	StepLength float64 `yaml:"step_length"`
	StepHeight float64 `yaml:"step_height"`
	SingleTime float64 `yaml:"single_time"`
	DoubleTime float64 `yaml:"double_time"`
}

func DefaultConfig() *Config {
	return &Config{
		Formulation: FormulationVelocity,
		Duration:    DefaultDuration,
		Robot: RobotConfig{
			ComHeight:      DefaultComHeight,
			FootHalfWidth:  DefaultFootHalfWidth,
			FootHalfHeight: DefaultFootHalfHeight,
			SoleHeight:     DefaultSoleHeight,
			FeetDistance:   DefaultFeetDistance,
		},
		Preview: PreviewConfig{
			Horizon:      DefaultHorizon,
			Period:       DefaultPeriod,
			OutputPeriod: DefaultOutputPeriod,
		},
		Weights: WeightConfig{
			Jerk:     DefaultJerkWeight,
			Velocity: DefaultVelocityWeight,
			CoP:      DefaultCoPWeight,
			Alpha:    DefaultAlpha,
			Beta:     DefaultBeta,
		},
		Constraints: ConstraintConfig{
			MarginX: DefaultMargin,
			MarginY: DefaultMargin,
		},
		Gait: GaitConfig{
			StepPeriod: 0.8,
			DSPeriod:   1e9,
			DSSSPeriod: 0.8,
			StepsSSDS:  2,
		},
		Plan: PlanConfig{
			Steps:      6,
			StepLength: 0.2,
			StepHeight: 0.05,
			SingleTime: 0.7,
			DoubleTime: 0.1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the generators cannot run.
func (c *Config) Validate() error {
	switch {
	case c.Formulation != FormulationVelocity && c.Formulation != FormulationFixed:
		return errors.Wrapf(dynamo.ErrConfiguration, "unknown formulation %q", c.Formulation)
	case c.Preview.Horizon <= 0:
		return errors.Wrapf(dynamo.ErrConfiguration, "horizon must be positive, got %d", c.Preview.Horizon)
	case c.Preview.Period <= 0 || c.Preview.OutputPeriod <= 0:
		return errors.Wrap(dynamo.ErrConfiguration, "sample periods must be positive")
	case c.Preview.OutputPeriod > c.Preview.Period:
		return errors.Wrap(dynamo.ErrConfiguration, "output period longer than the qp period")
	case c.Robot.ComHeight <= 0:
		return errors.Wrap(dynamo.ErrConfiguration, "com height must be positive")
	case c.Constraints.MarginX >= c.Robot.FootHalfWidth || c.Constraints.MarginY >= c.Robot.FootHalfHeight:
		return errors.Wrap(dynamo.ErrConfiguration, "constraint margins leave no support area")
	case c.Duration < 0:
		return errors.Wrap(dynamo.ErrConfiguration, "negative duration")
	}
	return nil
}

func (c *Config) Velocity() dynamo.Velocity {
	return dynamo.Velocity{X: c.Reference.VX, Y: c.Reference.VY, Yaw: c.Reference.YawRate}
}
