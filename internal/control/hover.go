package control

import (
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// NewHover holds every rotor at the speed that balances the vehicle's weight.
func NewHover(spec *vehicle.Spec) *Constant {
	return NewConstant(physics.Uniform(spec.HoverRPM()))
}
