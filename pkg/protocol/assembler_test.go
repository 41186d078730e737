package protocol

import (
	"bytes"
	"testing"
)

func mustEncode(t *testing.T, r Reading) []byte {
	t.Helper()
	frame, err := DefaultLayout.Encode(r)
	if err != nil {
		t.Fatalf("Encode failed: %s", err)
	}
	return frame
}

func TestAssemblerEmitsCompleteFrames(t *testing.T) {
	asm := NewAssembler(DefaultLayout)
	first := mustEncode(t, Reading{Displacement: 1.234, Unit: UnitMillimeter})
	second := mustEncode(t, Reading{Displacement: -0.05, Unit: UnitMillimeter})

	frames := asm.Feed(append(append([]byte{}, first...), second...))
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if !bytes.Equal(frames[0], first) || !bytes.Equal(frames[1], second) {
		t.Error("frames came out reordered or mangled")
	}
}

func TestAssemblerResynchronizesAfterGarbage(t *testing.T) {
	asm := NewAssembler(DefaultLayout)
	frame := mustEncode(t, Reading{Displacement: 2.5, Unit: UnitMillimeter})

	stream := append([]byte{0x00, 0xFF, 0x13, 0x37}, frame...)
	stream = append(stream, frame...)
	frames := asm.Feed(stream)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	for i, f := range frames {
		if _, err := DefaultLayout.Decode(f); err != nil {
			t.Errorf("frame %d undecodable after resync: %s", i, err)
		}
	}
}

// Chunk boundaries must not matter: the same stream split any which way yields the same frames.
func TestAssemblerChunkingIdempotence(t *testing.T) {
	var stream []byte
	readings := []Reading{
		{Displacement: 0.001, Unit: UnitMillimeter},
		{Displacement: -4.531, Unit: UnitMillimeter},
		{Displacement: 0.25, Unit: UnitInch},
	}
	for _, r := range readings {
		stream = append(stream, mustEncode(t, r)...)
	}
	stream = append([]byte{0xDE, 0xAD}, stream...)

	whole := NewAssembler(DefaultLayout).Feed(stream)

	for _, size := range []int{1, 2, 3, 5, 7} {
		byteAtATime := NewAssembler(DefaultLayout)
		var split [][]byte
		for i := 0; i < len(stream); i += size {
			end := min(i+size, len(stream))
			split = append(split, byteAtATime.Feed(stream[i:end])...)
		}
		if len(split) != len(whole) {
			t.Fatalf("chunk size %d: got %d frames, want %d", size, len(split), len(whole))
		}
		for i := range whole {
			if !bytes.Equal(split[i], whole[i]) {
				t.Errorf("chunk size %d: frame %d differs", size, i)
			}
		}
	}
}

func TestAssemblerEmptyAndPartialFeeds(t *testing.T) {
	asm := NewAssembler(DefaultLayout)
	if frames := asm.Feed(nil); len(frames) != 0 {
		t.Errorf("empty feed produced %d frames", len(frames))
	}

	frame := mustEncode(t, Reading{Displacement: 9.999, Unit: UnitMillimeter})
	if frames := asm.Feed(frame[:4]); len(frames) != 0 {
		t.Errorf("partial frame produced %d frames", len(frames))
	}
	frames := asm.Feed(frame[4:])
	if len(frames) != 1 {
		t.Fatalf("got %d frames after completing the frame, want 1", len(frames))
	}
	if !bytes.Equal(frames[0], frame) {
		t.Error("reassembled frame differs from the original")
	}
}

func TestAssemblerDiscardsPureGarbage(t *testing.T) {
	asm := NewAssembler(DefaultLayout)
	garbage := bytes.Repeat([]byte{0x01, 0x02, 0x03}, 50)
	if frames := asm.Feed(garbage); len(frames) != 0 {
		t.Errorf("garbage produced %d frames", len(frames))
	}
	// The buffer must not retain any of it.
	frame := mustEncode(t, Reading{Displacement: 1, Unit: UnitMillimeter})
	if frames := asm.Feed(frame); len(frames) != 1 {
		t.Errorf("got %d frames after garbage, want 1", len(frames))
	}
}

func TestAssemblerReset(t *testing.T) {
	asm := NewAssembler(DefaultLayout)
	frame := mustEncode(t, Reading{Displacement: 3.3, Unit: UnitMillimeter})

	asm.Feed(frame[:6])
	asm.Reset()
	if frames := asm.Feed(frame[6:]); len(frames) != 0 {
		t.Errorf("stale bytes survived Reset: %d frames", len(frames))
	}
	if frames := asm.Feed(frame); len(frames) != 1 {
		t.Errorf("got %d frames after Reset, want 1", len(frames))
	}
}
