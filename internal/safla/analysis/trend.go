package analysis

import (
	"context"

	"github.com/asgard/safla/internal/safla/model"
	"github.com/montanaflynn/stats"
)

// TrendAnalyzer fits linear and quadratic trends per sensor, preferring the
// quadratic fit when it meaningfully outperforms the linear one (§4.D). The
// teacher's go.mod already carries montanaflynn/stats (as an indirect
// dependency it never actually imported); this is where SAFLA promotes it
// to direct use, for the linear correlation the pack has a ready library
// for. Quadratic least squares has no library anywhere in the pack, so its
// normal-equations solve stays on stdlib math.
type TrendAnalyzer struct {
	cfg Config
}

func (a *TrendAnalyzer) Name() string { return "trend" }

func (a *TrendAnalyzer) Analyze(ctx context.Context, window []model.NormalizedReading) (model.AnalysisResult, error) {
	var out model.AnalysisResult

	for sensorID, readings := range bySensor(window) {
		if len(readings) < 5 {
			continue
		}
		if p, ok := a.analyzeSensor(sensorID, readings); ok {
			out.Patterns = append(out.Patterns, p)
		}
	}
	return out, nil
}

func (a *TrendAnalyzer) analyzeSensor(sensorID string, readings []model.NormalizedReading) (model.Pattern, bool) {
	xs := make([]float64, len(readings))
	ys := make([]float64, len(readings))
	for i, r := range readings {
		xs[i] = float64(i)
		ys[i] = r.ScaledValue
	}

	slope, intercept := linearFit(xs, ys)
	r1 := linearR2(xs, ys, slope, intercept)

	c0, c1, c2 := quadraticFit(xs, ys)
	r2 := quadraticR2(xs, ys, c0, c1, c2)

	interval := model.TimeInterval{Start: readings[0].Timestamp, End: readings[len(readings)-1].Timestamp}
	duration := interval.End - interval.Start
	perHourScale := 1.0
	if duration > 0 {
		perHourScale = 3600 / (duration / float64(len(readings)-1))
	}

	if r2 > 1.1*r1 && r2 > a.cfg.TrendR2Threshold {
		direction := "flat"
		if c2 > 1e-9 {
			direction = "accelerating"
		} else if c2 < -1e-9 {
			direction = "decelerating"
		}
		return model.Pattern{
			Kind:       model.PatternTrend,
			SensorIDs:  []string{sensorID},
			Confidence: r2,
			Interval:   interval,
			Payload: map[string]any{
				"coefficients": [3]float64{c0, c1, c2},
				"direction":    direction,
				"acceleration": 2 * c2,
				"r2":           r2,
			},
		}, true
	}

	if r1 > a.cfg.TrendR2Threshold {
		direction := "flat"
		if slope > 1e-9 {
			direction = "rising"
		} else if slope < -1e-9 {
			direction = "falling"
		}
		return model.Pattern{
			Kind:       model.PatternTrend,
			SensorIDs:  []string{sensorID},
			Confidence: r1,
			Interval:   interval,
			Payload: map[string]any{
				"slope":        slope,
				"direction":    direction,
				"per_hour_rate": slope * perHourScale,
				"r2":            r1,
			},
		}, true
	}

	return model.Pattern{}, false
}

func linearFit(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// linearR2 uses montanaflynn/stats.Correlation for the Pearson r, squared to
// get the coefficient of determination — exactly equivalent to a degree-1
// least-squares R² and the pack's own idiom for it.
func linearR2(xs, ys []float64, slope, intercept float64) float64 {
	r, err := stats.Correlation(stats.Float64Data(xs), stats.Float64Data(ys))
	if err != nil {
		return 0
	}
	return r * r
}

func quadraticFit(xs, ys []float64) (c0, c1, c2 float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0, 0
	}
	var sx, sx2, sx3, sx4, sy, sxy, sx2y float64
	for i := range xs {
		x := xs[i]
		y := ys[i]
		x2 := x * x
		sx += x
		sx2 += x2
		sx3 += x2 * x
		sx4 += x2 * x2
		sy += y
		sxy += x * y
		sx2y += x2 * y
	}

	// Solve the 3x3 normal-equations system via Cramer's rule.
	a := [3][3]float64{
		{n, sx, sx2},
		{sx, sx2, sx3},
		{sx2, sx3, sx4},
	}
	b := [3]float64{sy, sxy, sx2y}

	det := det3(a)
	if det == 0 {
		return 0, 0, 0
	}
	c0 = det3(replaceCol(a, 0, b)) / det
	c1 = det3(replaceCol(a, 1, b)) / det
	c2 = det3(replaceCol(a, 2, b)) / det
	return c0, c1, c2
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func replaceCol(m [3][3]float64, col int, v [3]float64) [3][3]float64 {
	out := m
	for row := 0; row < 3; row++ {
		out[row][col] = v[row]
	}
	return out
}

func quadraticR2(xs, ys []float64, c0, c1, c2 float64) float64 {
	meanY := meanOf(ys)
	var ssRes, ssTot float64
	for i, x := range xs {
		pred := c0 + c1*x + c2*x*x
		d := ys[i] - pred
		ssRes += d * d
		dt := ys[i] - meanY
		ssTot += dt * dt
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
