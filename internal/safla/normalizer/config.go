package normalizer

// Range is an inclusive [Low, High] bound used for both validation and
// min-max scaling.
type Range struct {
	Low  float64
	High float64
}

// Config tunes the per-kind ranges used by validation and scaling (§4.B).
type Config struct {
	// TemperatureValidRange is the wide sanity-check band ("temperature
	// outside [-50, 150] C" rejects the reading outright).
	TemperatureValidRange Range
	// TemperatureScaleRange is the narrower operating band used for
	// min-max scaling ("clamp to configured range (default [-10, 40])").
	TemperatureScaleRange Range

	HumidityValidRange Range // also the scaling range ([0,100])

	CO2ValidRange      Range // also used as the scaling range
	AirQualityRange    Range
	NoiseRange         Range
	PressureRange      Range

	// PowerMaxWatts and LightMaxLux bound the log-scale denominator:
	// log10(value+1)/log10(max+1).
	PowerMaxWatts float64
	LightMaxLux   float64
}

// DefaultConfig matches every default named in §4.B.
func DefaultConfig() Config {
	return Config{
		TemperatureValidRange: Range{Low: -50, High: 150},
		TemperatureScaleRange: Range{Low: -10, High: 40},
		HumidityValidRange:    Range{Low: 0, High: 100},
		CO2ValidRange:         Range{Low: 0, High: 10000},
		AirQualityRange:       Range{Low: 0, High: 500},
		NoiseRange:            Range{Low: 0, High: 140},
		PressureRange:         Range{Low: 870, High: 1085},
		PowerMaxWatts:         10000,
		LightMaxLux:           100000,
	}
}

func (r Range) clamp(v float64) float64 {
	if v < r.Low {
		return r.Low
	}
	if v > r.High {
		return r.High
	}
	return v
}

func (r Range) minMaxScale(v float64) float64 {
	if r.High == r.Low {
		return 0
	}
	return (r.clamp(v) - r.Low) / (r.High - r.Low)
}

func (r Range) contains(v float64) bool {
	return v >= r.Low && v <= r.High
}
