// Package model defines the SAFLA data model: the tagged sum types and typed
// records that flow between Sense, Analyze, Feedback, and Learn (§3).
package model

import "time"

// SensorKind enumerates the sensor categories a Reading can carry.
type SensorKind string

const (
	SensorTemperature SensorKind = "temperature"
	SensorHumidity    SensorKind = "humidity"
	SensorMotion      SensorKind = "motion"
	SensorLight       SensorKind = "light"
	SensorPressure    SensorKind = "pressure"
	SensorPower       SensorKind = "power"
	SensorDoor        SensorKind = "door"
	SensorWindow      SensorKind = "window"
	SensorCO2         SensorKind = "co2"
	SensorAirQuality  SensorKind = "air-quality"
	SensorNoise       SensorKind = "noise"
	SensorVibration   SensorKind = "vibration"
)

// RawValue is the sum variant a Reading's raw value may take: number,
// boolean, or short string. Exactly one field is meaningful, selected by Kind.
type RawValue struct {
	Kind   RawValueKind
	Number float64
	Bool   bool
	Text   string
}

// RawValueKind tags which field of RawValue is populated.
type RawValueKind string

const (
	RawNumber RawValueKind = "number"
	RawBool   RawValueKind = "bool"
	RawText   RawValueKind = "text"
)

// NumberValue builds a numeric RawValue.
func NumberValue(v float64) RawValue { return RawValue{Kind: RawNumber, Number: v} }

// BoolValue builds a boolean RawValue.
func BoolValue(v bool) RawValue { return RawValue{Kind: RawBool, Bool: v} }

// TextValue builds a short-string RawValue.
func TextValue(v string) RawValue { return RawValue{Kind: RawText, Text: v} }

// Reading is a single timestamped raw sample from the Sensor Source (§3).
type Reading struct {
	SensorID  string
	Kind      SensorKind
	Timestamp float64 // monotonic seconds since epoch
	Value     RawValue
	Unit      string
}

// Quality classifies a NormalizedReading's trustworthiness (§4.B).
type Quality string

const (
	QualityHigh    Quality = "high"
	QualityMedium  Quality = "medium"
	QualityLow     Quality = "low"
	QualityInvalid Quality = "invalid"
)

// NormalizedReading is a Reading after validation, quality scoring, and
// [0,1] scaling. Immutable after construction — no component mutates a
// NormalizedReading's fields once it has been handed to the Ring Buffer.
type NormalizedReading struct {
	Reading

	ScaledValue float64 // always in [0,1]
	Quality     Quality
	Confidence  float64 // always in [0,1]
	Latency     time.Duration
	Metadata    map[string]any
}
