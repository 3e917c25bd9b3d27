package analysis

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/asgard/safla/internal/safla/model"
)

// PeriodicAnalyzer detects dominant periodicity per sensor (§4.D). There is
// no FFT library anywhere in the retrieved corpus, so the discrete Fourier
// transform is a direct O(n^2) stdlib math/cmplx implementation — acceptable
// at the ring buffer's bounded window sizes, and the one piece of this
// package that stays on the standard library because nothing in the pack
// offers a DSP routine to wire instead.
type PeriodicAnalyzer struct {
	cfg Config
}

func (a *PeriodicAnalyzer) Name() string { return "periodic" }

func (a *PeriodicAnalyzer) Analyze(ctx context.Context, window []model.NormalizedReading) (model.AnalysisResult, error) {
	var out model.AnalysisResult

	for sensorID, readings := range bySensor(window) {
		if len(readings) < 10 {
			continue
		}
		pattern, ok := a.analyzeSensor(sensorID, readings)
		if ok {
			out.Patterns = append(out.Patterns, pattern)
		}
	}
	return out, nil
}

func (a *PeriodicAnalyzer) analyzeSensor(sensorID string, readings []model.NormalizedReading) (model.Pattern, bool) {
	times := make([]float64, len(readings))
	values := make([]float64, len(readings))
	for i, r := range readings {
		times[i] = r.Timestamp
		values[i] = r.ScaledValue
	}

	uniform, dt := resampleUniform(times, values)
	detrended := removeLinearTrend(uniform)
	windowed := applyHann(detrended)

	n := len(windowed)
	spectrum := dft(windowed)

	// Only positive frequencies up to Nyquist are meaningful.
	maxBin := n / 2
	peakBin := -1
	peakMag := 0.0
	sumMag := 0.0
	for k := 1; k < maxBin; k++ {
		mag := cmplx.Abs(spectrum[k])
		sumMag += mag
		if mag > peakMag {
			peakMag = mag
			peakBin = k
		}
	}
	if peakBin <= 0 || sumMag == 0 {
		return model.Pattern{}, false
	}

	meanMag := sumMag / float64(maxBin-1)
	if peakMag < 2*meanMag {
		return model.Pattern{}, false
	}

	freq := float64(peakBin) / (float64(n) * dt)
	if freq <= 0 {
		return model.Pattern{}, false
	}
	period := 1.0 / freq
	if period < a.cfg.MinPeriodSeconds || period > a.cfg.MaxPeriodSeconds {
		return model.Pattern{}, false
	}

	confidence := peakMag / (sumMag + 1e-9)
	if confidence > 1 {
		confidence = 1
	}

	phase := cmplx.Phase(spectrum[peakBin])
	amplitude := 2 * peakMag / float64(n)

	return model.Pattern{
		Kind:       model.PatternPeriodic,
		SensorIDs:  []string{sensorID},
		Confidence: confidence,
		Interval:   model.TimeInterval{Start: times[0], End: times[len(times)-1]},
		Payload: map[string]any{
			"period":    period,
			"frequency": freq,
			"amplitude": amplitude,
			"phase":     phase,
		},
	}, true
}

// resampleUniform linearly interpolates to uniform spacing when the spacing
// is irregular enough (sigma(dt) > 10% of mean dt), per §4.D.
func resampleUniform(times, values []float64) ([]float64, float64) {
	n := len(times)
	deltas := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		deltas = append(deltas, times[i]-times[i-1])
	}
	meanDt := meanOf(deltas)
	if meanDt <= 0 {
		return values, 1
	}

	var variance float64
	for _, d := range deltas {
		diff := d - meanDt
		variance += diff * diff
	}
	variance /= float64(len(deltas))
	sigma := math.Sqrt(variance)

	if sigma <= 0.1*meanDt {
		return values, meanDt
	}

	start := times[0]
	end := times[n-1]
	count := int((end-start)/meanDt) + 1
	if count < 2 {
		return values, meanDt
	}
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		target := start + float64(i)*meanDt
		out[i] = interpolateAt(times, values, target)
	}
	return out, meanDt
}

func interpolateAt(times, values []float64, target float64) float64 {
	if target <= times[0] {
		return values[0]
	}
	last := len(times) - 1
	if target >= times[last] {
		return values[last]
	}
	for i := 1; i < len(times); i++ {
		if times[i] >= target {
			t0, t1 := times[i-1], times[i]
			v0, v1 := values[i-1], values[i]
			if t1 == t0 {
				return v0
			}
			frac := (target - t0) / (t1 - t0)
			return v0 + frac*(v1-v0)
		}
	}
	return values[last]
}

func removeLinearTrend(values []float64) []float64 {
	n := len(values)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	slope, intercept := linearFit(xs, values)

	out := make([]float64, n)
	for i, v := range values {
		out[i] = v - (slope*xs[i] + intercept)
	}
	return out
}

func applyHann(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 1 {
		out[0] = values[0]
		return out
	}
	for i, v := range values {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		out[i] = v * w
	}
	return out
}

// dft is a direct O(n^2) discrete Fourier transform.
func dft(x []float64) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += complex(x[t], 0) * cmplx.Rect(1, angle)
		}
		out[k] = sum
	}
	return out
}
