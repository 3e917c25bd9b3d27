package normalizer

import (
	"testing"

	"github.com/asgard/safla/internal/safla/model"
)

func clockAt(t float64) func() float64 {
	return func() float64 { return t }
}

func TestProcessFreshTemperatureIsHighQuality(t *testing.T) {
	n := New(DefaultConfig(), clockAt(1000), nil)
	r := model.Reading{
		SensorID:  "temp-1",
		Kind:      model.SensorTemperature,
		Timestamp: 999.5,
		Value:     model.NumberValue(22.0),
		Unit:      "C",
	}

	nr, ok := n.Process(r)
	if !ok {
		t.Fatalf("expected reading to be accepted")
	}
	if nr.Quality != model.QualityHigh {
		t.Fatalf("expected high quality, got %v", nr.Quality)
	}
	if nr.ScaledValue <= 0 || nr.ScaledValue >= 1 {
		t.Fatalf("expected scaled value in (0,1), got %v", nr.ScaledValue)
	}
}

func TestProcessRejectsOutOfRangeTemperature(t *testing.T) {
	n := New(DefaultConfig(), clockAt(1000), nil)
	r := model.Reading{
		SensorID:  "temp-2",
		Kind:      model.SensorTemperature,
		Timestamp: 999,
		Value:     model.NumberValue(999.0),
		Unit:      "C",
	}

	_, ok := n.Process(r)
	if ok {
		t.Fatalf("expected reading to be rejected")
	}
	if n.InvalidCount() != 1 {
		t.Fatalf("expected invalid count 1, got %d", n.InvalidCount())
	}
}

func TestProcessRejectsFutureTimestamp(t *testing.T) {
	n := New(DefaultConfig(), clockAt(1000), nil)
	r := model.Reading{
		SensorID:  "temp-3",
		Kind:      model.SensorTemperature,
		Timestamp: 5000,
		Value:     model.NumberValue(20.0),
	}
	_, ok := n.Process(r)
	if ok {
		t.Fatalf("expected future-timestamped reading to be rejected")
	}
}

func TestProcessRejectsStaleTimestamp(t *testing.T) {
	n := New(DefaultConfig(), clockAt(10000), nil)
	r := model.Reading{
		SensorID:  "temp-4",
		Kind:      model.SensorTemperature,
		Timestamp: 1000,
		Value:     model.NumberValue(20.0),
	}
	_, ok := n.Process(r)
	if ok {
		t.Fatalf("expected stale reading to be rejected")
	}
}

func TestFahrenheitConvertedBeforeScaling(t *testing.T) {
	n := New(DefaultConfig(), clockAt(100), nil)
	r := model.Reading{
		SensorID:  "temp-5",
		Kind:      model.SensorTemperature,
		Timestamp: 99.9,
		Value:     model.NumberValue(98.6), // ~37C, body temp
		Unit:      "F",
	}
	nr, ok := n.Process(r)
	if !ok {
		t.Fatalf("expected reading accepted")
	}
	want := DefaultConfig().TemperatureScaleRange.minMaxScale(37.0)
	if diff := nr.ScaledValue - want; diff > 0.01 || diff < -0.01 {
		t.Fatalf("expected scaled ~%.3f, got %.3f", want, nr.ScaledValue)
	}
}

func TestMotionBooleanMapsToOneOrZero(t *testing.T) {
	n := New(DefaultConfig(), clockAt(10), nil)
	onReading := model.Reading{SensorID: "m1", Kind: model.SensorMotion, Timestamp: 9.9, Value: model.BoolValue(true)}
	nr, ok := n.Process(onReading)
	if !ok || nr.ScaledValue != 1.0 {
		t.Fatalf("expected scaled 1.0 for motion true, got ok=%v val=%v", ok, nr.ScaledValue)
	}

	offReading := model.Reading{SensorID: "m1", Kind: model.SensorMotion, Timestamp: 9.9, Value: model.BoolValue(false)}
	nr2, ok := n.Process(offReading)
	if !ok || nr2.ScaledValue != 0.0 {
		t.Fatalf("expected scaled 0.0 for motion false, got ok=%v val=%v", ok, nr2.ScaledValue)
	}
}

func TestPowerLogScaleMonotonic(t *testing.T) {
	n := New(DefaultConfig(), clockAt(10), nil)
	low := model.Reading{SensorID: "p1", Kind: model.SensorPower, Timestamp: 9.9, Value: model.NumberValue(10)}
	high := model.Reading{SensorID: "p1", Kind: model.SensorPower, Timestamp: 9.9, Value: model.NumberValue(9000)}

	lowNR, ok := n.Process(low)
	if !ok {
		t.Fatalf("expected low power reading accepted")
	}
	highNR, ok := n.Process(high)
	if !ok {
		t.Fatalf("expected high power reading accepted")
	}
	if highNR.ScaledValue <= lowNR.ScaledValue {
		t.Fatalf("expected log scale to be monotonic: low=%v high=%v", lowNR.ScaledValue, highNR.ScaledValue)
	}
}

func TestOutlierDowngradesQualityToMedium(t *testing.T) {
	n := New(DefaultConfig(), clockAt(0), nil)
	base := 20.0
	for i := 0; i < historyWindow; i++ {
		// Alternate 20.0/20.5 so the baseline has a non-zero spread; a
		// perfectly flat history yields z=0 (see sensorState.zScore).
		value := base + 0.5*float64(i%2)
		r := model.Reading{SensorID: "t1", Kind: model.SensorTemperature, Timestamp: -0.1, Value: model.NumberValue(value), Unit: "C"}
		if _, ok := n.Process(r); !ok {
			t.Fatalf("expected baseline reading %d accepted", i)
		}
	}

	outlier := model.Reading{SensorID: "t1", Kind: model.SensorTemperature, Timestamp: -0.1, Value: model.NumberValue(39.9), Unit: "C"}
	nr, ok := n.Process(outlier)
	if !ok {
		t.Fatalf("expected outlier reading accepted, just downgraded")
	}
	if nr.Quality == model.QualityHigh {
		t.Fatalf("expected outlier to prevent high quality, got %v", nr.Quality)
	}
}

func TestAccumulatedErrorsKeepStaleReadingAtLowQuality(t *testing.T) {
	n := New(DefaultConfig(), clockAt(0), nil)
	bad := model.Reading{SensorID: "t2", Kind: model.SensorTemperature, Timestamp: -0.1, Value: model.NumberValue(9999), Unit: "C"}
	for i := 0; i <= errorThreshold; i++ {
		n.Process(bad)
	}

	// The quality ladder is ordered: a 70s-old reading would be invalid, and
	// more than errorThreshold accumulated errors is what makes it low.
	n2 := New(DefaultConfig(), clockAt(100), nil)
	n2.sensors["t2"] = &sensorState{errorCount: errorThreshold + 1}
	ok := model.Reading{SensorID: "t2", Kind: model.SensorTemperature, Timestamp: 30, Value: model.NumberValue(20), Unit: "C"}
	nr, accepted := n2.Process(ok)
	if !accepted {
		t.Fatalf("expected reading accepted despite high error count")
	}
	if nr.Quality != model.QualityLow {
		t.Fatalf("expected low quality due to error count, got %v", nr.Quality)
	}
}

func TestConfidenceDecaysWithAge(t *testing.T) {
	n := New(DefaultConfig(), clockAt(100), nil)
	fresh := model.Reading{SensorID: "t3", Kind: model.SensorHumidity, Timestamp: 99.9, Value: model.NumberValue(50)}
	nrFresh, _ := n.Process(fresh)

	n2 := New(DefaultConfig(), clockAt(250), nil)
	old := model.Reading{SensorID: "t4", Kind: model.SensorHumidity, Timestamp: 100, Value: model.NumberValue(50)}
	nrOld, ok := n2.Process(old)
	if !ok {
		t.Fatalf("expected aged reading accepted")
	}
	if nrOld.Confidence >= nrFresh.Confidence {
		t.Fatalf("expected confidence to decay with age: fresh=%v old=%v", nrFresh.Confidence, nrOld.Confidence)
	}
}

func TestRejectsNullValue(t *testing.T) {
	n := New(DefaultConfig(), clockAt(10), nil)
	r := model.Reading{SensorID: "t5", Kind: model.SensorTemperature, Timestamp: 9.9}
	_, ok := n.Process(r)
	if ok {
		t.Fatalf("expected null value to be rejected")
	}
}
