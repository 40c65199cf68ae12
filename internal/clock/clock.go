// Package clock provides the mission clock: signed elapsed seconds between a
// wall-clock instant and the mission reference instant (T-0).
package clock

import (
	"fmt"
	"math"
	"time"
)

// Reading is a derived mission clock value. Negative means before T-0
// (countdown), non-negative means after (count-up). Never persisted.
type Reading struct {
	ElapsedSeconds float64
}

// Elapsed returns signed elapsed seconds between now and the reference
// instant. Pure and total; callers own their own timers.
func Elapsed(now, ref time.Time) float64 {
	return now.Sub(ref).Seconds()
}

// At wraps Elapsed in a Reading.
func At(now, ref time.Time) Reading {
	return Reading{ElapsedSeconds: Elapsed(now, ref)}
}

// Countdown reports whether the reading is before T-0.
func (r Reading) Countdown() bool {
	return r.ElapsedSeconds < 0
}

// FormatTMinus renders elapsed seconds as a countdown/count-up string,
// e.g. "T-00:10:00" or "T+01:02:03". Sub-second remainders truncate toward
// zero so the display never skips T-0.
func FormatTMinus(elapsed float64) string {
	sign := "+"
	if elapsed < 0 {
		sign = "-"
	}
	total := int(math.Abs(elapsed))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("T%s%02d:%02d:%02d", sign, h, m, s)
}
