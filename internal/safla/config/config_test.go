package config

import (
	"os"
	"testing"
	"time"
)

func clearSaflaEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SAFLA_HOUSE_ID", "SAFLA_RING_BUFFER_CAPACITY", "SAFLA_TICK_INTERVAL",
		"SAFLA_ZSCORE_THRESHOLD", "SAFLA_TEMPERATURE_MIN", "SAFLA_BREAKER_FAILURE_THRESHOLD",
	} {
		os.Unsetenv(key)
	}
}

func TestDefaultConfigMatchesComponentDefaults(t *testing.T) {
	cfg := DefaultConfig("house-1")
	if cfg.HouseID != "house-1" {
		t.Fatalf("expected house id to be set, got %q", cfg.HouseID)
	}
	if cfg.Orchestrator.Timeouts.TickInterval != 100*time.Millisecond {
		t.Fatalf("expected default tick interval 100ms, got %v", cfg.Orchestrator.Timeouts.TickInterval)
	}
}

func TestLoadConfigFromEnvOverlaysSetValues(t *testing.T) {
	clearSaflaEnv(t)
	defer clearSaflaEnv(t)

	os.Setenv("SAFLA_RING_BUFFER_CAPACITY", "2500")
	os.Setenv("SAFLA_TICK_INTERVAL", "250ms")
	os.Setenv("SAFLA_ZSCORE_THRESHOLD", "2.5")
	os.Setenv("SAFLA_TEMPERATURE_MIN", "5")

	cfg := LoadConfigFromEnv("house-2")

	if cfg.RingBufferCapacity != 2500 {
		t.Fatalf("expected overlaid ring buffer capacity 2500, got %d", cfg.RingBufferCapacity)
	}
	if cfg.Orchestrator.Timeouts.TickInterval != 250*time.Millisecond {
		t.Fatalf("expected overlaid tick interval 250ms, got %v", cfg.Orchestrator.Timeouts.TickInterval)
	}
	if cfg.Analysis.ZScoreThreshold != 2.5 {
		t.Fatalf("expected overlaid z-score threshold 2.5, got %v", cfg.Analysis.ZScoreThreshold)
	}
	if cfg.Safety.TemperatureMin != 5 {
		t.Fatalf("expected overlaid temperature min 5, got %v", cfg.Safety.TemperatureMin)
	}
}

func TestLoadConfigFromEnvIgnoresUnparsableValues(t *testing.T) {
	clearSaflaEnv(t)
	defer clearSaflaEnv(t)

	os.Setenv("SAFLA_RING_BUFFER_CAPACITY", "not-a-number")
	cfg := LoadConfigFromEnv("house-3")

	if cfg.RingBufferCapacity != DefaultConfig("house-3").RingBufferCapacity {
		t.Fatalf("expected default ring buffer capacity retained on unparsable override, got %d", cfg.RingBufferCapacity)
	}
}

func TestLoadConfigFromEnvKeepsDefaultsWhenUnset(t *testing.T) {
	clearSaflaEnv(t)
	defer clearSaflaEnv(t)

	cfg := LoadConfigFromEnv("house-4")
	def := DefaultConfig("house-4")
	if cfg.Breaker.ConsecutiveFailureThreshold != def.Breaker.ConsecutiveFailureThreshold {
		t.Fatalf("expected unset breaker threshold to keep default")
	}
}
