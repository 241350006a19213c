package control

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

var ErrSingularMixer = errors.New("control: rotor layout cannot produce independent thrust and torques")

// Default gains, in acceleration per unit error.
const (
	DefaultKp    = 6.0
	DefaultKi    = 1.0
	DefaultKd    = 4.0
	DefaultAttKp = 400.0
	DefaultAttKd = 40.0
	DefaultYawKd = 20.0

	DefaultIntegralLimit = 0.1

	// minUp bounds the tilt compensation of the collective thrust.
	minUp = 0.5
)

// AltitudeHold flies to TargetZ with a PID on altitude and keeps the body
// level with a PD loop on roll and pitch plus yaw-rate damping. The desired
// collective thrust and body torques are converted to per-rotor thrust by
// inverting the vehicle's allocation matrix.
type AltitudeHold struct {
	AttKp, AttKd, YawKd float64

	spec   vehicle.Spec
	alt    *PID
	mixer  *mat.Dense
	wrench *mat.VecDense
	forces *mat.VecDense
}

// mixer returns the inverse of the allocation matrix that maps per-rotor
// thrust to collective thrust and body torques.
func mixer(spec *vehicle.Spec) (*mat.Dense, error) {
	a := mat.NewDense(4, vehicle.NumRotors, nil)
	for i := 0; i < vehicle.NumRotors; i++ {
		up := spec.ThrustDirections[i].Z
		r := spec.RotorPositions[i]
		a.Set(0, i, up)
		a.Set(1, i, r.Y*up)
		a.Set(2, i, -r.X*up)
		a.Set(3, i, spec.TorqueDirections[i].Z*spec.TorqueCoef)
	}
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularMixer, err)
	}
	return &inv, nil
}

func NewAltitudeHold(spec *vehicle.Spec, targetZ float64) (*AltitudeHold, error) {
	m, err := mixer(spec)
	if err != nil {
		return nil, err
	}
	h := &AltitudeHold{
		AttKp:  DefaultAttKp,
		AttKd:  DefaultAttKd,
		YawKd:  DefaultYawKd,
		spec:   *spec,
		alt:    NewPID(DefaultKp, DefaultKi, DefaultKd, targetZ),
		mixer:  m,
		wrench: mat.NewVecDense(4, nil),
		forces: mat.NewVecDense(vehicle.NumRotors, nil),
	}
	h.alt.IntegralLimit = DefaultIntegralLimit
	return h, nil
}

func (h *AltitudeHold) Compute(s physics.DroneState, t float64) physics.ControlAction {
	q := s.Orientation
	w := s.AngularVelocity

	az := h.alt.Update(s.Position.Z, t)
	up := math.Max(minUp, 1-2*(q.X*q.X+q.Y*q.Y))
	collective := h.spec.Mass * (vehicle.StandardGravity + az) / up

	roll, pitch, _ := q.Euler()
	alpha := linalg.Vec3{
		X: -h.AttKp*roll - h.AttKd*w.X,
		Y: -h.AttKp*pitch - h.AttKd*w.Y,
		Z: -h.YawKd * w.Z,
	}
	tau := h.spec.Inertia.MulVec(alpha)
	tau.AddCross(w, h.spec.Inertia.MulVec(w))

	h.wrench.SetVec(0, collective)
	h.wrench.SetVec(1, tau.X)
	h.wrench.SetVec(2, tau.Y)
	h.wrench.SetVec(3, tau.Z)
	h.forces.MulVec(h.mixer, h.wrench)

	var a physics.ControlAction
	floor := h.spec.RotorThrust(vehicle.MinRPM)
	for i := range a.RPM {
		rpm := h.spec.RPMForThrust(math.Max(floor, h.forces.AtVec(i)))
		if math.IsNaN(rpm) {
			rpm = vehicle.MinRPM
		}
		a.RPM[i] = rpm
	}
	return a.Clamp()
}

func (h *AltitudeHold) Reset() {
	h.alt.Reset()
}

func (h *AltitudeHold) TargetZ() float64 { return h.alt.Target }

// GetParams returns tunable parameters for live adjustment
func (h *AltitudeHold) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":       h.alt.Kp,
		"ki":       h.alt.Ki,
		"kd":       h.alt.Kd,
		"target_z": h.alt.Target,
		"att_kp":   h.AttKp,
		"att_kd":   h.AttKd,
		"yaw_kd":   h.YawKd,
	}
}

// SetParam adjusts one parameter by name.
func (h *AltitudeHold) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		h.alt.Kp = value
	case "ki":
		h.alt.Ki = value
	case "kd":
		h.alt.Kd = value
	case "target_z":
		h.alt.Target = value
	case "att_kp":
		h.AttKp = value
	case "att_kd":
		h.AttKd = value
	case "yaw_kd":
		h.YawKd = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}

// ParamNames lists the keys of a Configurable in a stable order.
func ParamNames(c Configurable) []string {
	params := c.GetParams()
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
