package env

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/florianHoidn/rl-drone-env/internal/physics"
)

// ObservationSize is the wire size of one observation: the 13 state scalars
// as little-endian float64 in Flatten order.
const ObservationSize = physics.StateDim * 8

func AppendObservation(dst []byte, s physics.DroneState) []byte {
	var flat [physics.StateDim]float64
	s.AppendTo(flat[:0])
	for _, v := range flat {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	return dst
}

func EncodeObservation(w io.Writer, s physics.DroneState) error {
	var buf [ObservationSize]byte
	_, err := w.Write(AppendObservation(buf[:0], s))
	return err
}

// DecodeObservation is the inverse of AppendObservation.
func DecodeObservation(b []byte) (physics.DroneState, error) {
	if len(b) < ObservationSize {
		return physics.DroneState{}, ErrShortFrame
	}
	var flat [physics.StateDim]float64
	for i := range flat {
		flat[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return physics.StateFromSlice(flat[:]), nil
}

// Space describes a box-shaped observation or action space.
type Space struct {
	Name  string  `yaml:"name"`
	Shape []int   `yaml:"shape"`
	Low   float64 `yaml:"low"`
	High  float64 `yaml:"high"`
}

func ObservationSpace() Space {
	return Space{Name: "drone_state", Shape: []int{physics.StateDim}, Low: math.Inf(-1), High: math.Inf(1)}
}

func ActionSpace() Space {
	return Space{Name: "continuous_input", Shape: []int{physics.ActionDim}, Low: -1, High: 1}
}
