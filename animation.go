package clusterlight

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Composition order is fixed: circular -> linear -> wave (additive,
// position) -> flicker -> pulse (multiplicative, intensity and radius)
// -> rotate (orientation, and optionally position orbit).

func fract32(v float32) float32 {
	return v - float32(math.Floor(float64(v)))
}

func circularOffset(p CircularParams, t float32) mgl32.Vec3 {
	s, c := sincos32(t * p.Speed)
	return mgl32.Vec3{s * p.Radius, 0, c * p.Radius}
}

// linearTParam reduces t into the mode-adjusted [0,1] progress value.
// Returns (tPrime, active) -- Linear only contributes once t >= Delay.
func linearTParam(p LinearParams, t float32) (float32, bool) {
	if t < p.Delay {
		return 0, false
	}
	if p.Duration <= 0 {
		// Zero-or-negative duration would divide by zero; treat it as
		// an instantaneous snap to the target instead.
		return 1, true
	}
	raw := (t - p.Delay) / p.Duration

	switch p.Mode {
	case LinearOnce:
		if raw < 0 {
			raw = 0
		}
		if raw > 1 {
			raw = 1
		}
		return raw, true
	case LinearLoop:
		return fract32(raw), true
	case LinearPingPong:
		cycle := float32(math.Floor(float64(raw)))
		frac := fract32(raw)
		odd := int64(cycle)%2 != 0
		if odd {
			frac = 1 - frac
		}
		return frac, true
	default:
		return 0, false
	}
}

func linearOffset(p LinearParams, base mgl32.Vec3, t float32) mgl32.Vec3 {
	tPrime, active := linearTParam(p, t)
	if !active {
		return mgl32.Vec3{}
	}
	delta := p.Target.Sub(base)
	return delta.Mul(tPrime)
}

func waveOffset(p WaveParams, t float32) mgl32.Vec3 {
	s := float32(math.Sin(float64(t*p.Speed + p.Phase)))
	axis := p.Axis
	if n := axis.Len(); n > 0 {
		axis = axis.Mul(1 / n)
	}
	return axis.Mul(s * p.Amplitude)
}

func flickerFactor(p FlickerParams, t float32) float32 {
	a := float32(math.Sin(float64(t*p.Speed + p.Seed)))
	b := float32(math.Cos(float64(t*1.7*p.Speed + 2.3*p.Seed)))
	f := 1 + a*b*p.Intensity
	if f < 0.1 {
		f = 0.1
	}
	if f > 2.0 {
		f = 2.0
	}
	return f
}

func pulseFactor(p PulseParams, t float32) float32 {
	return 1 + float32(math.Sin(float64(t*p.Speed)))*p.Amount
}

func rotateAngle(p RotateParams, t float32) float32 {
	switch p.Mode {
	case RotateSwing:
		return float32(math.Sin(float64(t*p.Speed))) * p.MaxAngle
	default: // RotateContinuous
		twoPi := float32(2 * math.Pi)
		return fract32(t*p.Speed/twoPi) * twoPi
	}
}

// rodrigues rotates v about the unit axis by angle radians.
func rodrigues(v, axis mgl32.Vec3, angle float32) mgl32.Vec3 {
	s, c := sincos32(angle)
	term1 := v.Mul(c)
	term2 := axis.Cross(v).Mul(s)
	term3 := axis.Mul(axis.Dot(v) * (1 - c))
	return term1.Add(term2).Add(term3)
}

func sincos32(v float32) (float32, float32) {
	s, c := math.Sincos(float64(v))
	return float32(s), float32(c)
}

// evaluatePointAnimation recomputes currentPos/currentRadius/currentIntensity
// from base fields at time t. Idempotent: calling it twice at the same t
// yields the same result, and mutating basePos between calls never
// desyncs a later evaluation, since every current* field is derived
// fresh from base* and t rather than from the previous current* value.
func evaluatePointAnimation(l *pointLight, t float32) {
	pos := l.basePos
	radius := l.radius
	intensity := l.intensity
	a := l.anim

	if a.Flags.has(AnimCircular) {
		pos = pos.Add(circularOffset(a.Circular, t))
	}
	if a.Flags.has(AnimLinear) {
		pos = pos.Add(linearOffset(a.Linear, l.basePos, t))
	}
	if a.Flags.has(AnimWave) {
		pos = pos.Add(waveOffset(a.Wave, t))
	}
	if a.Flags.has(AnimFlicker) {
		intensity *= flickerFactor(a.Flicker, t)
	}
	if a.Flags.has(AnimPulse) {
		f := pulseFactor(a.Pulse, t)
		if a.Pulse.Target&PulseIntensity != 0 {
			intensity *= f
		}
		if a.Pulse.Target&PulseRadius != 0 {
			radius *= f
		}
	}
	// Rotate has no effect on a point light's direction (it has none),
	// but an active rotation still orbits position when Orbit is set.
	if a.Flags.has(AnimRotate) && a.Rotate.Orbit {
		angle := rotateAngle(a.Rotate, t)
		pos = rodrigues(pos, a.Rotate.Axis, angle)
	}

	l.currentPos = pos
	l.currentRadius = radius
	l.currentIntensity = intensity
}

func evaluateSpotAnimation(l *spotLight, t float32) {
	pos := l.basePos
	radius := l.radius
	intensity := l.intensity
	dir := l.baseDir
	a := l.anim

	if a.Flags.has(AnimLinear) {
		pos = pos.Add(linearOffset(a.Linear, l.basePos, t))
	}
	if a.Flags.has(AnimWave) {
		pos = pos.Add(waveOffset(a.Wave, t))
	}
	if a.Flags.has(AnimFlicker) {
		intensity *= flickerFactor(a.Flicker, t)
	}
	if a.Flags.has(AnimPulse) {
		f := pulseFactor(a.Pulse, t)
		if a.Pulse.Target&PulseIntensity != 0 {
			intensity *= f
		}
		if a.Pulse.Target&PulseRadius != 0 {
			radius *= f
		}
	}
	if a.Flags.has(AnimRotate) {
		angle := rotateAngle(a.Rotate, t)
		dir = rodrigues(dir, a.Rotate.Axis, angle).Normalize()
		if a.Rotate.Orbit {
			pos = rodrigues(pos, a.Rotate.Axis, angle)
		}
	}

	l.currentPos = pos
	l.currentDir = dir
	l.currentRadius = radius
	l.currentIntensity = intensity
}

func evaluateRectAnimation(l *rectLight, t float32) {
	pos := l.basePos
	radius := l.radius
	intensity := l.intensity
	norm := l.baseNorm
	tan := l.baseTan
	bitan := l.baseBitan
	a := l.anim

	if a.Flags.has(AnimLinear) {
		pos = pos.Add(linearOffset(a.Linear, l.basePos, t))
	}
	if a.Flags.has(AnimWave) {
		pos = pos.Add(waveOffset(a.Wave, t))
	}
	if a.Flags.has(AnimFlicker) {
		intensity *= flickerFactor(a.Flicker, t)
	}
	if a.Flags.has(AnimPulse) {
		f := pulseFactor(a.Pulse, t)
		if a.Pulse.Target&PulseIntensity != 0 {
			intensity *= f
		}
		if a.Pulse.Target&PulseRadius != 0 {
			radius *= f
		}
	}
	if a.Flags.has(AnimRotate) {
		angle := rotateAngle(a.Rotate, t)
		norm = rodrigues(norm, a.Rotate.Axis, angle).Normalize()
		tan = rodrigues(tan, a.Rotate.Axis, angle).Normalize()
		bitan = rodrigues(bitan, a.Rotate.Axis, angle).Normalize()
		if a.Rotate.Orbit {
			pos = rodrigues(pos, a.Rotate.Axis, angle)
		}
	}

	l.currentPos = pos
	l.currentNorm = norm
	l.currentTan = tan
	l.currentBitan = bitan
	l.currentRadius = radius
	l.currentIntensity = intensity
}
