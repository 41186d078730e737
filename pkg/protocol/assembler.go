package protocol

// pendingCap bounds the assembler buffer at this multiple of one frame length. A stream that
// somehow accumulates more than that without yielding frames is garbled beyond realignment and
// gets discarded wholesale.
const pendingCap = 4

// Assembler converts an unbounded sequence of transport chunks into complete frames. It holds
// the bytes left over between chunks; chunk boundaries carry no meaning, so feeding the same
// stream in any chunking yields the same frames.
type Assembler struct {
	layout  FrameLayout
	pending []byte
}

func NewAssembler(layout FrameLayout) *Assembler {
	return &Assembler{layout: layout}
}

// Feed appends chunk to the pending buffer and extracts every complete frame now available.
// Bytes that cannot start a frame are dropped one at a time from the front, which bounds
// resynchronization after noise or a dropped byte to one frame's worth of input.
func (a *Assembler) Feed(chunk []byte) [][]byte {
	a.pending = append(a.pending, chunk...)

	var frames [][]byte
	for len(a.pending) > 0 {
		if a.pending[0] != a.layout.Header {
			a.pending = a.pending[1:]
			continue
		}
		if len(a.pending) < a.layout.Length {
			break
		}
		frame := make([]byte, a.layout.Length)
		copy(frame, a.pending)
		a.pending = a.pending[a.layout.Length:]
		frames = append(frames, frame)
	}

	if len(a.pending) > pendingCap*a.layout.Length {
		a.pending = nil
	} else if len(a.pending) == 0 {
		a.pending = nil
	}
	return frames
}

// Reset discards any pending bytes. Called after a reconnect, when leftover bytes from the old
// link would otherwise corrupt the first frame of the new one.
func (a *Assembler) Reset() {
	a.pending = nil
}
