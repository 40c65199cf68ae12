// Package telemetry synthesizes a plausible ascent time series as a pure
// function of elapsed mission seconds. There is no physics engine behind it;
// the curves are shaped so chat, dashboard, and CLI views that sample it
// independently in the same tick always agree.
package telemetry

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// StageStatus is the booster state. Transitions are one-way; see Tracker.
type StageStatus string

// FairingStatus is the payload fairing state.
type FairingStatus string

const (
	StageAttached  StageStatus = "attached"
	StageSeparated StageStatus = "separated"
	StageLanding   StageStatus = "landing"
	StageLanded    StageStatus = "landed"

	FairingAttached  FairingStatus = "attached"
	FairingSeparated FairingStatus = "separated"
)

// Profile timeline offsets, seconds from T-0.
const (
	ignitionStart = -3.0
	mecoAt        = 160.0
	stageSepAt    = 164.0
	fairingSepAt  = 195.0
	landingFrom   = 420.0
	landedAt      = 492.0
	secoAt        = 510.0

	// MaxQ is reported over a window, not an instant, so the flag is stable
	// across consecutive polls.
	maxQFrom = 60.0
	maxQTo   = 80.0
	maxQPeak = 70.0

	mecoAltitudeKm = 65.0
	secoAltitudeKm = 200.0
	mecoVelocity   = 2.3
	secoVelocity   = 7.6
	peakQKPa       = 32.0
	fuelFloorPct   = 2.0
)

// Point is one synthesized telemetry sample.
type Point struct {
	TElapsed           float64       `json:"t_elapsed"`
	AltitudeKm         float64       `json:"altitude_km"`
	VelocityKmS        float64       `json:"velocity_km_s"`
	DownrangeKm        float64       `json:"downrange_km"`
	AccelerationG      float64       `json:"acceleration_g"`
	DynamicPressureKPa float64       `json:"dynamic_pressure_kpa"`
	FuelRemainingPct   float64       `json:"fuel_remaining_pct"`
	ThrottlePct        float64       `json:"throttle_pct"`
	StageStatus        StageStatus   `json:"stage_status"`
	FairingStatus      FairingStatus `json:"fairing_status"`
	MaxQ               bool          `json:"max_q"`
}

// Synthesize returns the telemetry point for the given elapsed seconds.
// Deterministic: repeated calls with the same input return identical output.
// Far-negative or pre-ignition inputs clamp to the resting pad state.
func Synthesize(elapsed float64) Point {
	p := Point{
		TElapsed:         elapsed,
		FuelRemainingPct: 100,
		StageStatus:      StageAttached,
		FairingStatus:    FairingAttached,
	}

	if elapsed < ignitionStart {
		return p
	}
	if elapsed < 0 {
		// Engine startup ramp; vehicle still on the pad.
		p.ThrottlePct = (1 - (-elapsed)/(-ignitionStart)) * 100
		p.AccelerationG = 1
		return p
	}

	p.AltitudeKm = altitude(elapsed)
	p.VelocityKmS = velocity(elapsed)
	p.DownrangeKm = downrange(elapsed)
	p.FuelRemainingPct = fuel(elapsed)
	p.ThrottlePct = throttle(elapsed)
	p.DynamicPressureKPa = dynamicPressure(elapsed)
	p.AccelerationG = acceleration(elapsed) * (1 + 0.005*jitter(elapsed))
	p.MaxQ = elapsed >= maxQFrom && elapsed <= maxQTo
	p.StageStatus = stageAt(elapsed)
	p.FairingStatus = fairingAt(elapsed)
	return p
}

func altitude(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t <= mecoAt:
		return mecoAltitudeKm * math.Pow(t/mecoAt, 2.2)
	case t <= secoAt:
		frac := (t - mecoAt) / (secoAt - mecoAt)
		return mecoAltitudeKm + (secoAltitudeKm-mecoAltitudeKm)*math.Pow(frac, 1.1)
	default:
		return secoAltitudeKm
	}
}

func velocity(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t <= mecoAt:
		return mecoVelocity * math.Pow(t/mecoAt, 1.6)
	case t <= secoAt:
		frac := (t - mecoAt) / (secoAt - mecoAt)
		return mecoVelocity + (secoVelocity-mecoVelocity)*math.Pow(frac, 1.3)
	default:
		return secoVelocity
	}
}

func downrange(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t <= secoAt:
		return 0.002 * t * t
	default:
		return 0.002*secoAt*secoAt + secoVelocity*(t-secoAt)
	}
}

func fuel(t float64) float64 {
	switch {
	case t <= 0:
		return 100
	case t <= mecoAt:
		return 100 - 72*(t/mecoAt)
	case t <= secoAt:
		return 28 - (28-fuelFloorPct)*((t-mecoAt)/(secoAt-mecoAt))
	default:
		return fuelFloorPct
	}
}

func throttle(t float64) float64 {
	switch {
	case t < 0 || t > secoAt:
		return 0
	case t >= maxQFrom-5 && t <= maxQTo+5:
		// Thrust bucket through the high-Q regime.
		return 72
	default:
		return 100
	}
}

func dynamicPressure(t float64) float64 {
	if t <= 0 || t >= mecoAt {
		return 0
	}
	d := (t - maxQPeak) / 18
	return peakQKPa * math.Exp(-0.5*d*d)
}

func acceleration(t float64) float64 {
	switch {
	case t <= mecoAt:
		return 1.2 + 2.3*math.Pow(t/mecoAt, 2)
	case t <= stageSepAt+10:
		// Coast between staging and second ignition.
		return 0.5
	case t <= secoAt:
		frac := (t - stageSepAt - 10) / (secoAt - stageSepAt - 10)
		return 0.9 + 3.1*frac*frac
	default:
		return 0
	}
}

func stageAt(t float64) StageStatus {
	switch {
	case t >= landedAt:
		return StageLanded
	case t >= landingFrom:
		return StageLanding
	case t >= stageSepAt:
		return StageSeparated
	default:
		return StageAttached
	}
}

func fairingAt(t float64) FairingStatus {
	if t >= fairingSepAt {
		return FairingSeparated
	}
	return FairingAttached
}

// jitter returns a deterministic value in [-1, 1] derived from the
// millisecond-quantized elapsed time.
func jitter(t float64) float64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(t*1000)))
	h := fnv.New64a()
	h.Write(buf[:])
	return float64(int64(h.Sum64())) / math.MaxInt64
}
