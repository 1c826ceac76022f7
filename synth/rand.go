// Package synth fabricates plausible Groningen rental listings for the
// backfill path. All randomness flows through one injected seeded source so
// a given seed always yields the same records.
package synth

import (
	"fmt"
	"time"
)

// Rand is a small linear congruential generator. Not crypto, not meant to
// be: backfill only needs day-stable plausible variety.
type Rand struct {
	state int64
}

// NewRand seeds from an arbitrary string.
func NewRand(seed string) *Rand {
	var h int64
	for _, c := range seed {
		h = h*31 + int64(c)
	}
	if h < 0 {
		h = -h
	}
	return &Rand{state: h}
}

// DateSeed returns the calendar-date seed, so generated records are stable
// within one day and roll over at midnight.
func DateSeed(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// Next returns a float in [0, 1).
func (r *Rand) Next() float64 {
	r.state = (r.state*9301 + 49297) % 233280
	return float64(r.state) / 233280
}

// IntN returns an int in [min, max] inclusive.
func (r *Rand) IntN(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(r.Next()*float64(max-min+1))
}

// Choose picks one element of s.
func Choose[T any](r *Rand, s []T) T {
	return s[r.IntN(0, len(s)-1)]
}
