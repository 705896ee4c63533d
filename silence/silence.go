// Package silence implements the amplitude-gated endpointing rule that
// decides when a spoken command has ended.
package silence

import (
	"time"

	"voice-typist/pcm"
)

// State tracks the start of the most recent contiguous run of
// below-threshold chunks. The zero value means no silent run is in
// progress. A fresh State is created for every recording episode and
// discarded when the episode ends.
type State struct {
	Start time.Time
}

// Update consumes one PCM chunk and reports whether accumulated silence
// should end the utterance. A chunk is silent when its mean amplitude is
// strictly below threshold; a chunk at exactly the threshold counts as
// speech and resets the run. shouldEnd fires once the silent run has
// lasted strictly longer than hold, clearing the run at the same time.
// Update is a pure function of its inputs and never fails; chunk byte
// length must be even.
func Update(st State, chunk []byte, threshold float64, hold time.Duration, now time.Time) (State, bool) {
	amp := pcm.Amplitude(chunk)

	if amp >= threshold {
		st.Start = time.Time{}

		return st, false
	}

	if st.Start.IsZero() {
		st.Start = now

		return st, false
	}

	if now.Sub(st.Start) > hold {
		st.Start = time.Time{}

		return st, true
	}

	return st, false
}
