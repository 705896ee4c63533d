package silence

import (
	"testing"
	"time"

	"voice-typist/pcm"
)

const (
	testThreshold = 500
	testHold      = 300 * time.Millisecond
)

// chunkWithAmplitude builds a chunk whose mean absolute amplitude is the
// given value.
func chunkWithAmplitude(amp int16) []byte {
	return pcm.Bytes([]int16{amp, -amp, amp, -amp})
}

func TestUpdate(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	quiet := chunkWithAmplitude(100)
	loud := chunkWithAmplitude(1000)

	t.Run("silence shorter than hold does not end", func(t *testing.T) {
		var st State

		var end bool

		for _, offset := range []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond} {
			st, end = Update(st, quiet, testThreshold, testHold, base.Add(offset))
			if end {
				t.Fatalf("unexpected end at offset %v", offset)
			}
		}

		if !st.Start.Equal(base) {
			t.Errorf("expected run start %v, got %v", base, st.Start)
		}
	})

	t.Run("silence past hold ends the utterance and clears the run", func(t *testing.T) {
		var st State

		var end bool

		for _, offset := range []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond} {
			st, end = Update(st, quiet, testThreshold, testHold, base.Add(offset))
			if end {
				t.Fatalf("unexpected end at offset %v", offset)
			}
		}

		st, end = Update(st, quiet, testThreshold, testHold, base.Add(310*time.Millisecond))
		if !end {
			t.Fatal("expected end at 310ms")
		}

		if !st.Start.IsZero() {
			t.Errorf("expected cleared run start, got %v", st.Start)
		}
	})

	t.Run("run lasting exactly the hold does not yet end", func(t *testing.T) {
		st, _ := Update(State{}, quiet, testThreshold, testHold, base)

		st, end := Update(st, quiet, testThreshold, testHold, base.Add(testHold))
		if end {
			t.Fatal("expected no end at exactly the hold duration")
		}

		if !st.Start.Equal(base) {
			t.Errorf("expected run start kept, got %v", st.Start)
		}
	})

	t.Run("loud chunk resets the run", func(t *testing.T) {
		st, _ := Update(State{}, quiet, testThreshold, testHold, base)

		st, end := Update(st, loud, testThreshold, testHold, base.Add(100*time.Millisecond))
		if end {
			t.Fatal("unexpected end on loud chunk")
		}

		if !st.Start.IsZero() {
			t.Errorf("expected cleared run start after loud chunk, got %v", st.Start)
		}

		// A new silent run after the reset gets its full hold again.
		st, _ = Update(st, quiet, testThreshold, testHold, base.Add(150*time.Millisecond))

		st, end = Update(st, quiet, testThreshold, testHold, base.Add(460*time.Millisecond))
		if !end {
			t.Fatal("expected end 310ms into the new run")
		}

		_ = st
	})

	t.Run("amplitude equal to threshold counts as speech", func(t *testing.T) {
		st, _ := Update(State{}, quiet, testThreshold, testHold, base)

		boundary := chunkWithAmplitude(testThreshold)

		st, end := Update(st, boundary, testThreshold, testHold, base.Add(100*time.Millisecond))
		if end {
			t.Fatal("unexpected end on boundary chunk")
		}

		if !st.Start.IsZero() {
			t.Error("expected boundary amplitude to reset the run")
		}
	})

	t.Run("empty chunk counts as silent", func(t *testing.T) {
		st, end := Update(State{}, nil, testThreshold, testHold, base)
		if end {
			t.Fatal("unexpected end on first empty chunk")
		}

		if !st.Start.Equal(base) {
			t.Errorf("expected run start %v, got %v", base, st.Start)
		}
	})
}
