package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/florianHoidn/rl-drone-env/internal/control"
	"github.com/florianHoidn/rl-drone-env/internal/env"
	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

const (
	DefaultDt       = 1.0 / 60
	DefaultDuration = 10.0
	DefaultTargetZ  = 1.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name             string           `yaml:"name,omitempty"`
	Vehicle          string           `yaml:"vehicle,omitempty"`
	Controller       string           `yaml:"controller"`
	Dt               float64          `yaml:"dt"`
	Duration         float64          `yaml:"duration"`
	Seed             int64            `yaml:"seed"`
	ClampActions     bool             `yaml:"clamp_actions"`
	InitState        InitStateConfig  `yaml:"init_state"`
	ControllerParams ControllerConfig `yaml:"controller_params"`
	Bounds           env.Bounds       `yaml:"bounds"`
}

// InitStateConfig describes the initial state. Orientation, when given, is
// a quaternion x, y, z, w; otherwise AngleDeg about Axis is used.
type InitStateConfig struct {
	Position        [3]float64 `yaml:"position,flow"`
	Orientation     []float64  `yaml:"orientation,flow,omitempty"`
	Axis            [3]float64 `yaml:"axis,flow"`
	AngleDeg        float64    `yaml:"angle_deg"`
	LinearVelocity  [3]float64 `yaml:"linear_velocity,flow"`
	AngularVelocity [3]float64 `yaml:"angular_velocity,flow"`
}

type ControllerConfig struct {
	Kp      float64 `yaml:"kp"`
	Ki      float64 `yaml:"ki"`
	Kd      float64 `yaml:"kd"`
	TargetZ float64 `yaml:"target_z"`
	AttKp   float64 `yaml:"att_kp"`
	AttKd   float64 `yaml:"att_kd"`
	YawKd   float64 `yaml:"yaw_kd"`
	RPM     float64 `yaml:"rpm,omitempty"`
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Kp:      control.DefaultKp,
		Ki:      control.DefaultKi,
		Kd:      control.DefaultKd,
		TargetZ: DefaultTargetZ,
		AttKp:   control.DefaultAttKp,
		AttKd:   control.DefaultAttKd,
		YawKd:   control.DefaultYawKd,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Controller:   "altitude_hold",
		Dt:           DefaultDt,
		Duration:     DefaultDuration,
		ClampActions: true,
		InitState: InitStateConfig{
			Axis: [3]float64{1, 0, 0},
		},
		ControllerParams: DefaultControllerConfig(),
		Bounds:           env.DefaultBounds(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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

func (c *Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	}
	if n := len(c.InitState.Orientation); n != 0 && n != 4 {
		return fmt.Errorf("%w: orientation needs 4 components, got %d", ErrInvalidConfig, n)
	}
	if !c.InitialState().IsFinite() {
		return fmt.Errorf("%w: initial state is not finite", ErrInvalidConfig)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.InitState.Orientation = append([]float64(nil), c.InitState.Orientation...)
	return &out
}

func (c *Config) InitialState() physics.DroneState {
	is := c.InitState
	s := physics.DroneState{
		Position:        vec(is.Position),
		LinearVelocity:  vec(is.LinearVelocity),
		AngularVelocity: vec(is.AngularVelocity),
	}
	if len(is.Orientation) == 4 {
		q := linalg.Quat{X: is.Orientation[0], Y: is.Orientation[1], Z: is.Orientation[2], W: is.Orientation[3]}
		if n := q.Norm(); n > 0 {
			q.ScaleInPlace(1 / n)
		}
		s.Orientation = q
	} else {
		s.Orientation = linalg.QuatFromAxisAngle(vec(is.Axis), is.AngleDeg*math.Pi/180)
	}
	return s
}

// Params returns the controller parameters keyed by the names understood by
// control.AltitudeHold.SetParam.
func (c *Config) Params() map[string]float64 {
	p := c.ControllerParams
	return map[string]float64{
		"kp":       p.Kp,
		"ki":       p.Ki,
		"kd":       p.Kd,
		"target_z": p.TargetZ,
		"att_kp":   p.AttKp,
		"att_kd":   p.AttKd,
		"yaw_kd":   p.YawKd,
	}
}

// SetParam sets one controller parameter by the name Params uses; "rpm"
// sets the constant controller's command.
func (c *Config) SetParam(name string, value float64) error {
	p := &c.ControllerParams
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "target_z":
		p.TargetZ = value
	case "att_kp":
		p.AttKp = value
	case "att_kd":
		p.AttKd = value
	case "yaw_kd":
		p.YawKd = value
	case "rpm":
		p.RPM = value
	default:
		return fmt.Errorf("%w: unknown controller parameter %q", ErrInvalidConfig, name)
	}
	return nil
}

// LoadVehicle returns the configured vehicle, or the Crazyflie when none is
// set.
func (c *Config) LoadVehicle() (*vehicle.Spec, error) {
	if c.Vehicle == "" {
		return vehicle.Crazyflie(), nil
	}
	return vehicle.Load(c.Vehicle)
}

func vec(a [3]float64) linalg.Vec3 {
	return linalg.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
