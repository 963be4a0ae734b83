package player

import (
	"crypto/sha1"
	"encoding/binary"
	mathrand "math/rand"
)

// minBarHeight keeps every bar visible; heights land in [minBarHeight, 1].
const minBarHeight = 0.12

// Waveform produces a deterministic pseudo-random bar series for a call's
// audio placeholder. The same call ID always yields the same bars, so the
// visual stays stable across renders and clients without decoding audio.
func Waveform(callID string, bars int) []float64 {
	if bars <= 0 {
		return nil
	}
	hash := sha1.Sum([]byte(callID))
	seed := int64(binary.BigEndian.Uint64(hash[:8]))
	rnd := mathrand.New(mathrand.NewSource(seed))

	out := make([]float64, bars)
	for i := range out {
		out[i] = minBarHeight + rnd.Float64()*(1-minBarHeight)
	}
	return out
}
