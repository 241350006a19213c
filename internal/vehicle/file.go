package vehicle

import (
	"fmt"
	"os"

	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"gopkg.in/yaml.v3"
)

type rotorFile struct {
	Position        [3]float64 `yaml:"position"`
	ThrustDirection [3]float64 `yaml:"thrust_direction"`
	TorqueDirection [3]float64 `yaml:"torque_direction"`
}

type specFile struct {
	Name        string      `yaml:"name"`
	ThrustCoefs [3]float64  `yaml:"thrust_coefs"`
	TorqueCoef  float64     `yaml:"torque_coef"`
	Mass        float64     `yaml:"mass"`
	Inertia     [9]float64  `yaml:"inertia"`
	InertiaInv  *[9]float64 `yaml:"inertia_inv,omitempty"`
	Rotors      []rotorFile `yaml:"rotors"`
}

// Load reads a spec from YAML. When inertia_inv is omitted it is computed
// from inertia.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Spec, error) {
	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Rotors) != NumRotors {
		return nil, fmt.Errorf("%w: expected %d rotors, got %d", ErrInvalidSpec, NumRotors, len(f.Rotors))
	}

	s := &Spec{
		Name:        f.Name,
		ThrustCoefs: vec(f.ThrustCoefs),
		TorqueCoef:  f.TorqueCoef,
		Mass:        f.Mass,
		Inertia:     linalg.Mat3(f.Inertia),
	}
	for i, r := range f.Rotors {
		s.RotorPositions[i] = vec(r.Position)
		s.ThrustDirections[i] = vec(r.ThrustDirection)
		s.TorqueDirections[i] = vec(r.TorqueDirection)
	}

	if f.InertiaInv != nil {
		s.InertiaInv = linalg.Mat3(*f.InertiaInv)
	} else {
		inv, err := InvertInertia(s.Inertia)
		if err != nil {
			return nil, err
		}
		s.InertiaInv = inv
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Save(path string, s *Spec) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func Marshal(s *Spec) ([]byte, error) {
	inv := [9]float64(s.InertiaInv)
	f := specFile{
		Name:        s.Name,
		ThrustCoefs: arr(s.ThrustCoefs),
		TorqueCoef:  s.TorqueCoef,
		Mass:        s.Mass,
		Inertia:     [9]float64(s.Inertia),
		InertiaInv:  &inv,
		Rotors:      make([]rotorFile, NumRotors),
	}
	for i := range f.Rotors {
		f.Rotors[i] = rotorFile{
			Position:        arr(s.RotorPositions[i]),
			ThrustDirection: arr(s.ThrustDirections[i]),
			TorqueDirection: arr(s.TorqueDirections[i]),
		}
	}
	return yaml.Marshal(&f)
}

func vec(a [3]float64) linalg.Vec3 { return linalg.Vec3{X: a[0], Y: a[1], Z: a[2]} }
func arr(v linalg.Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
