package env

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/florianHoidn/rl-drone-env/internal/physics"
)

// StableHoverBias is the normalized rotor command that approximately hovers
// the default vehicle.
const StableHoverBias = 0.334

// ActionFrameSize is the wire size of one action: four little-endian float32.
const ActionFrameSize = physics.ActionDim * 4

// Action is a rotor command in the normalized box [-1, 1] per rotor.
type Action [physics.ActionDim]float32

func HoverAction() Action {
	return Action{StableHoverBias, StableHoverBias, StableHoverBias, StableHoverBias}
}

// RPM maps each component from [-1, 1] onto [MinRPM, MaxRPM]. Values outside
// the box are clamped; NaN is passed through so the engine can reject it.
func (a Action) RPM() physics.ControlAction {
	var out physics.ControlAction
	for i, v := range a {
		out.RPM[i] = ActionToRPM(float64(v))
	}
	return out
}

func ActionToRPM(a float64) float64 {
	if a < -1 {
		a = -1
	} else if a > 1 {
		a = 1
	}
	return physics.MinRPM + (a+1)/2*(physics.MaxRPM-physics.MinRPM)
}

func RPMToAction(rpm float64) float64 {
	return 2*(rpm-physics.MinRPM)/(physics.MaxRPM-physics.MinRPM) - 1
}

// DecodeAction reads one action frame from b.
func DecodeAction(b []byte) (Action, error) {
	var a Action
	if len(b) < ActionFrameSize {
		return a, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(b))
	}
	for i := range a {
		a[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return a, nil
}

func (a Action) AppendBinary(dst []byte) []byte {
	for _, v := range a {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// ReadAction blocks until a full action frame is available on r.
func ReadAction(r io.Reader) (Action, error) {
	var buf [ActionFrameSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Action{}, err
	}
	return DecodeAction(buf[:])
}

// ActionBuffer hands the latest agent action to the simulation tick. The
// agent side calls Set, the tick side calls Latest; both may run on
// different goroutines.
type ActionBuffer struct {
	mu       sync.Mutex
	action   Action
	received int
}

func NewActionBuffer() *ActionBuffer {
	return &ActionBuffer{action: HoverAction()}
}

func (b *ActionBuffer) Set(a Action) {
	b.mu.Lock()
	b.action = a
	b.received++
	b.mu.Unlock()
}

// Latest returns the most recent action, or the hover action if none has
// been set since the last Reset.
func (b *ActionBuffer) Latest() Action {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.action
}

// Received counts Set calls since the last Reset.
func (b *ActionBuffer) Received() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.received
}

func (b *ActionBuffer) Reset() {
	b.mu.Lock()
	b.action = HoverAction()
	b.received = 0
	b.mu.Unlock()
}
