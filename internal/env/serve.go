package env

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ResponseSize is the wire size of one tick's reply: observation, float32
// reward and a done byte.
const ResponseSize = ObservationSize + 4 + 1

// Serve runs the agent protocol over r and w until r is exhausted or ctx is
// cancelled. Each tick reads one action frame, steps the environment by dt
// and writes the reply. A finished episode is reset before the next frame.
//
// Cancellation is checked between frames; a blocked read is not interrupted.
func (e *Environment) Serve(ctx context.Context, r io.Reader, w io.Writer, dt float64) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, ResponseSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		a, err := ReadAction(br)
		if errors.Is(err, io.EOF) {
			return bw.Flush()
		}
		if err != nil {
			return err
		}
		e.actions.Set(a)

		tr, err := e.Step(dt)
		if err != nil && !tr.Done {
			e.logger.Warn("step rejected", "err", err)
			tr = Transition{State: e.engine.State(), Step: e.steps}
		}

		buf = AppendObservation(buf[:0], tr.State)
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(tr.Reward)))
		if tr.Done {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}

		if tr.Done {
			e.Reset()
		}
	}
}
