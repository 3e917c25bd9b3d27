// Package normalizer implements the Normalizer (§4.B): it validates raw
// Readings, classifies their quality/confidence, and scales them to [0,1].
// Per-sensor outlier and error bookkeeping is grounded in the HVAC teacher
// file's ReadingHistory/AnomalyCount pattern (per-sensor history, error
// accumulation, disable-after-N-anomalies shape).
package normalizer

import (
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

const (
	historyWindow  = 10
	ageHighSeconds = 5
	ageMedSeconds  = 30
	ageLowSeconds  = 60
	errorThreshold = 10
	confidenceHorizon = 5 * 60 // seconds, linear decay to zero
	outlierZThreshold = 3.0
)

// qualityWeight maps a Quality classification to its confidence multiplier.
var qualityWeight = map[model.Quality]float64{
	model.QualityHigh:    1.0,
	model.QualityMedium:  0.75,
	model.QualityLow:     0.5,
	model.QualityInvalid: 0,
}

// sensorState is the per-sensor bookkeeping the Normalizer owns exclusively.
type sensorState struct {
	recentScaled []float64 // last historyWindow scaled values, newest last
	errorCount   int
}

func (s *sensorState) recordScaled(v float64) {
	s.recentScaled = append(s.recentScaled, v)
	if len(s.recentScaled) > historyWindow {
		s.recentScaled = s.recentScaled[len(s.recentScaled)-historyWindow:]
	}
}

func (s *sensorState) zScore(v float64) float64 {
	if len(s.recentScaled) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range s.recentScaled {
		mean += x
	}
	mean /= float64(len(s.recentScaled))

	var variance float64
	for _, x := range s.recentScaled {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(s.recentScaled))
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	return (v - mean) / stddev
}

// Normalizer owns its per-sensor state exclusively (§3 Ownership).
type Normalizer struct {
	mu      sync.Mutex
	cfg     Config
	sensors map[string]*sensorState
	invalid int64
	now     func() float64 // seconds since epoch, overridable for tests
	logger  *log.Logger
}

// New builds a Normalizer. now defaults to the wall clock; logger defaults
// to log.Default().
func New(cfg Config, now func() float64, logger *log.Logger) *Normalizer {
	if now == nil {
		now = func() float64 { return float64(time.Now().UnixNano()) / 1e9 }
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Normalizer{cfg: cfg, sensors: make(map[string]*sensorState), now: now, logger: logger}
}

// InvalidCount reports how many readings have been dropped by validation.
func (n *Normalizer) InvalidCount() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.invalid
}

// Process validates and normalizes one Reading. It returns false if the
// reading was rejected (§4.B validation); a rejected reading never reaches
// the Ring Buffer.
func (n *Normalizer) Process(r model.Reading) (model.NormalizedReading, bool) {
	start := n.now()

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.validate(r, start); err != nil {
		n.invalid++
		state := n.stateFor(r.SensorID)
		state.errorCount++
		n.logger.Printf("[normalizer] rejected reading sensor=%s kind=%s: %v", r.SensorID, r.Kind, err)
		return model.NormalizedReading{}, false
	}

	scaled, err := n.scale(r)
	if err != nil {
		n.invalid++
		state := n.stateFor(r.SensorID)
		state.errorCount++
		n.logger.Printf("[normalizer] scale failed sensor=%s kind=%s: %v", r.SensorID, r.Kind, err)
		return model.NormalizedReading{}, false
	}

	state := n.stateFor(r.SensorID)
	z := state.zScore(scaled)
	age := start - r.Timestamp
	if age < 0 {
		age = 0
	}

	quality := classifyQuality(age, z, state.errorCount)
	confidence := qualityWeight[quality] * ageDecay(age)

	state.recordScaled(scaled)

	nr := model.NormalizedReading{
		Reading:     r,
		ScaledValue: scaled,
		Quality:     quality,
		Confidence:  confidence,
		Latency:     time.Duration((n.now() - start) * float64(time.Second)),
		Metadata:    map[string]any{"z_score": z},
	}
	return nr, true
}

func (n *Normalizer) stateFor(sensorID string) *sensorState {
	s, ok := n.sensors[sensorID]
	if !ok {
		s = &sensorState{}
		n.sensors[sensorID] = s
	}
	return s
}

// classifyQuality implements §4.B's quality ladder exactly as specified:
// high if age<5s and no outlier; medium if age<30s or a mild outlier; low
// if age<60s or the sensor has accumulated >10 errors; else invalid.
func classifyQuality(age, z float64, errorCount int) model.Quality {
	outlier := math.Abs(z) > outlierZThreshold

	switch {
	case age < ageHighSeconds && !outlier:
		return model.QualityHigh
	case age < ageMedSeconds || outlier:
		return model.QualityMedium
	case age < ageLowSeconds || errorCount > errorThreshold:
		return model.QualityLow
	default:
		return model.QualityInvalid
	}
}

// ageDecay is linear to zero over confidenceHorizon seconds (§4.B).
func ageDecay(age float64) float64 {
	d := 1 - age/confidenceHorizon
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

// validate implements §4.B's rejection rules: null value, stale/future
// timestamp, and kind-specific range violations.
func (n *Normalizer) validate(r model.Reading, now float64) error {
	if r.Value.Kind == "" {
		return fmt.Errorf("null value")
	}
	age := now - r.Timestamp
	if age > 3600 {
		return fmt.Errorf("timestamp older than one hour")
	}
	if r.Timestamp > now {
		return fmt.Errorf("timestamp in the future")
	}

	switch r.Kind {
	case model.SensorTemperature:
		celsius, err := toCelsius(r)
		if err != nil {
			return err
		}
		if !n.cfg.TemperatureValidRange.contains(celsius) {
			return fmt.Errorf("temperature %.2fC outside valid range", celsius)
		}
	case model.SensorHumidity:
		v, err := numeric(r)
		if err != nil {
			return err
		}
		if !n.cfg.HumidityValidRange.contains(v) {
			return fmt.Errorf("humidity %.2f outside [0,100]", v)
		}
	case model.SensorCO2:
		v, err := numeric(r)
		if err != nil {
			return err
		}
		if !n.cfg.CO2ValidRange.contains(v) {
			return fmt.Errorf("co2 %.2f outside [0,10000]", v)
		}
	}
	return nil
}

// scale dispatches to the per-kind normalizer strategy (§4.B).
func (n *Normalizer) scale(r model.Reading) (float64, error) {
	switch r.Kind {
	case model.SensorTemperature:
		celsius, err := toCelsius(r)
		if err != nil {
			return 0, err
		}
		return n.cfg.TemperatureScaleRange.minMaxScale(celsius), nil

	case model.SensorHumidity:
		v, err := numeric(r)
		if err != nil {
			return 0, err
		}
		return n.cfg.HumidityValidRange.clamp(v) / 100.0, nil

	case model.SensorMotion, model.SensorDoor, model.SensorWindow:
		return truthy(r.Value), nil

	case model.SensorPower:
		return n.logScale(r, n.cfg.PowerMaxWatts)
	case model.SensorLight:
		return n.logScale(r, n.cfg.LightMaxLux)

	case model.SensorCO2:
		v, err := numeric(r)
		if err != nil {
			return 0, err
		}
		return n.cfg.CO2ValidRange.minMaxScale(v), nil
	case model.SensorAirQuality:
		v, err := numeric(r)
		if err != nil {
			return 0, err
		}
		return n.cfg.AirQualityRange.minMaxScale(v), nil
	case model.SensorNoise:
		v, err := numeric(r)
		if err != nil {
			return 0, err
		}
		return n.cfg.NoiseRange.minMaxScale(v), nil
	case model.SensorPressure:
		v, err := numeric(r)
		if err != nil {
			return 0, err
		}
		return n.cfg.PressureRange.minMaxScale(v), nil

	case model.SensorVibration:
		// No dedicated range named in §4.B; treat as already-scaled [0,1]
		// amplitude, clamped defensively.
		v, err := numeric(r)
		if err != nil {
			return 0, err
		}
		return (Range{Low: 0, High: 1}).clamp(v), nil

	default:
		return 0, fmt.Errorf("unsupported sensor kind %q", r.Kind)
	}
}

func (n *Normalizer) logScale(r model.Reading, max float64) (float64, error) {
	v, err := numeric(r)
	if err != nil {
		return 0, err
	}
	v = convertToWattsOrLux(r.Unit, v)
	if v < 0 {
		v = 0
	}
	scaled := math.Log10(v+1) / math.Log10(max+1)
	return (Range{Low: 0, High: 1}).clamp(scaled), nil
}

func numeric(r model.Reading) (float64, error) {
	if r.Value.Kind != model.RawNumber {
		return 0, fmt.Errorf("expected numeric value, got %s", r.Value.Kind)
	}
	return r.Value.Number, nil
}

func toCelsius(r model.Reading) (float64, error) {
	v, err := numeric(r)
	if err != nil {
		return 0, err
	}
	switch strings.ToUpper(strings.TrimSpace(r.Unit)) {
	case "F", "FAHRENHEIT":
		return (v - 32) * 5 / 9, nil
	case "K", "KELVIN":
		return v - 273.15, nil
	default:
		return v, nil
	}
}

// convertToWattsOrLux is a no-op unit pass-through for now — the only units
// the Sensor Source is expected to emit for power/light are already
// watts/lux; kept as a named seam so a future unit table does not require a
// call-site change.
func convertToWattsOrLux(unit string, v float64) float64 {
	return v
}

// truthy implements §4.B's boolean mapping: boolean, numeric > 0, or
// case-insensitive {"true","yes","1","on"} maps to 1.0, else 0.0.
func truthy(v model.RawValue) float64 {
	switch v.Kind {
	case model.RawBool:
		if v.Bool {
			return 1.0
		}
		return 0.0
	case model.RawNumber:
		if v.Number > 0 {
			return 1.0
		}
		return 0.0
	case model.RawText:
		switch strings.ToLower(strings.TrimSpace(v.Text)) {
		case "true", "yes", "1", "on":
			return 1.0
		}
		return 0.0
	default:
		return 0.0
	}
}
