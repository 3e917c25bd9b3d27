package main

import (
	"context"
	"math"
	"math/rand"

	"github.com/asgard/safla/internal/safla/collab"
	"github.com/asgard/safla/internal/safla/model"
)

// demoSource is a synthetic SensorSource standing in for a real home's
// sensor fleet: every Fetch produces one noisy reading per registered
// device, drifting around a baseline so the analyzers have something to
// react to over time.
type demoSource struct {
	rng      *rand.Rand
	readings []demoReading
	tick     int
}

type demoReading struct {
	sensorID  string
	kind      model.SensorKind
	baseline  float64
	amplitude float64
	unit      string
}

func newDemoSource(seed int64) *demoSource {
	return &demoSource{
		rng: rand.New(rand.NewSource(seed)),
		readings: []demoReading{
			{sensorID: "thermostat-1-temp", kind: model.SensorTemperature, baseline: 21, amplitude: 2, unit: "celsius"},
			{sensorID: "living-room-humidity", kind: model.SensorHumidity, baseline: 45, amplitude: 8, unit: "percent"},
			{sensorID: "living-room-co2", kind: model.SensorCO2, baseline: 600, amplitude: 150, unit: "ppm"},
			{sensorID: "front-door-power", kind: model.SensorPower, baseline: 1200, amplitude: 400, unit: "watts"},
			{sensorID: "hallway-light", kind: model.SensorLight, baseline: 300, amplitude: 150, unit: "lux"},
		},
	}
}

func (d *demoSource) Fetch(ctx context.Context, window collab.TimeWindow) ([]model.Reading, error) {
	d.tick++
	out := make([]model.Reading, 0, len(d.readings))
	for _, r := range d.readings {
		drift := r.amplitude * math.Sin(float64(d.tick)/12) * 0.3
		noise := r.amplitude * 0.2 * (d.rng.Float64()*2 - 1)
		value := r.baseline + drift + noise

		// Occasionally inject a clear anomaly so the analyzers and
		// synthesizer see real work across a demo run.
		if d.tick%37 == 0 {
			value += r.amplitude * 4
		}

		out = append(out, model.Reading{
			SensorID:  r.sensorID,
			Kind:      r.kind,
			Timestamp: window.End,
			Value:     model.NumberValue(value),
			Unit:      r.unit,
		})
	}
	return out, nil
}
