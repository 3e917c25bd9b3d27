// Package config assembles every tunable named across §4 into one
// LoadConfigFromEnv-overlayable Config, mirroring the teacher's
// internal/platform/db.LoadConfig() env-overlay style (here: soft defaults
// always, since SAFLA's core mandates no required external secret).
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/asgard/safla/internal/safla/action"
	"github.com/asgard/safla/internal/safla/analysis"
	"github.com/asgard/safla/internal/safla/breaker"
	"github.com/asgard/safla/internal/safla/normalizer"
	"github.com/asgard/safla/internal/safla/orchestrator"
	"github.com/asgard/safla/internal/safla/safety"
	"github.com/asgard/safla/internal/safla/tuner"
)

// Config bundles every component's own Config/DefaultConfig value plus the
// handful of top-level knobs the Orchestrator itself owns. Each component
// keeps owning the shape of its own config; this just aggregates them for a
// single env-overlay pass and a single construction call site (cmd/safla-loop).
type Config struct {
	HouseID string

	RingBufferCapacity int
	ExperienceCapacity int
	CacheCapacity      int
	CacheTTL           time.Duration

	Orchestrator orchestrator.Config
	Analysis     analysis.Config
	Action       action.Config
	Safety       safety.Config
	Breaker      breaker.Config
	Normalizer   normalizer.Config
}

// DefaultConfig returns every sub-component's own defaults, aggregated.
func DefaultConfig(houseID string) Config {
	return Config{
		HouseID:            houseID,
		RingBufferCapacity: 10000,
		ExperienceCapacity: 50000, // matches experience.Buffer's own default
		CacheCapacity:      1000,
		CacheTTL:           300 * time.Second,

		Orchestrator: orchestrator.DefaultConfig(houseID),
		Analysis:     analysis.DefaultConfig(),
		Action:       action.DefaultConfig(),
		Safety:       safety.DefaultConfig(),
		Breaker:      breaker.DefaultConfig(),
		Normalizer:   normalizer.DefaultConfig(),
	}
}

// LoadConfigFromEnv overlays SAFLA_* environment variables onto
// DefaultConfig(houseID), following the teacher's getEnv(key, default)
// style — unset or unparsable values silently keep the default rather
// than erroring, since nothing in SAFLA's core requires an external
// secret the way the teacher's Postgres/Mongo/Redis passwords do.
func LoadConfigFromEnv(houseID string) Config {
	cfg := DefaultConfig(houseID)

	cfg.HouseID = getEnv("SAFLA_HOUSE_ID", cfg.HouseID)

	cfg.RingBufferCapacity = getEnvInt("SAFLA_RING_BUFFER_CAPACITY", cfg.RingBufferCapacity)
	cfg.ExperienceCapacity = getEnvInt("SAFLA_EXPERIENCE_CAPACITY", cfg.ExperienceCapacity)
	cfg.CacheCapacity = getEnvInt("SAFLA_CACHE_CAPACITY", cfg.CacheCapacity)
	cfg.CacheTTL = getEnvDuration("SAFLA_CACHE_TTL", cfg.CacheTTL)

	cfg.Orchestrator.LearnInterval = getEnvDuration("SAFLA_LEARN_INTERVAL", cfg.Orchestrator.LearnInterval)
	cfg.Orchestrator.Timeouts.TickInterval = getEnvDuration("SAFLA_TICK_INTERVAL", cfg.Orchestrator.Timeouts.TickInterval)
	cfg.Orchestrator.Timeouts.SenseTimeout = getEnvDuration("SAFLA_SENSE_TIMEOUT", cfg.Orchestrator.Timeouts.SenseTimeout)
	cfg.Orchestrator.Timeouts.AnalyzeTimeout = getEnvDuration("SAFLA_ANALYZE_TIMEOUT", cfg.Orchestrator.Timeouts.AnalyzeTimeout)
	cfg.Orchestrator.Timeouts.FeedbackTimeout = getEnvDuration("SAFLA_FEEDBACK_TIMEOUT", cfg.Orchestrator.Timeouts.FeedbackTimeout)
	cfg.Orchestrator.Timeouts.LearnTimeout = getEnvDuration("SAFLA_LEARN_TIMEOUT", cfg.Orchestrator.Timeouts.LearnTimeout)

	cfg.Analysis.ZScoreThreshold = getEnvFloat("SAFLA_ZSCORE_THRESHOLD", cfg.Analysis.ZScoreThreshold)
	cfg.Analysis.TrendR2Threshold = getEnvFloat("SAFLA_TREND_R2_THRESHOLD", cfg.Analysis.TrendR2Threshold)
	cfg.Analysis.MLContamination = getEnvFloat("SAFLA_ML_CONTAMINATION", cfg.Analysis.MLContamination)

	cfg.Safety.TemperatureMin = getEnvFloat("SAFLA_TEMPERATURE_MIN", cfg.Safety.TemperatureMin)
	cfg.Safety.TemperatureMax = getEnvFloat("SAFLA_TEMPERATURE_MAX", cfg.Safety.TemperatureMax)
	cfg.Safety.RateLimitMax = getEnvInt("SAFLA_RATE_LIMIT_MAX", cfg.Safety.RateLimitMax)
	cfg.Safety.RateLimitWindow = getEnvDuration("SAFLA_RATE_LIMIT_WINDOW", cfg.Safety.RateLimitWindow)
	cfg.Safety.PowerLimit = getEnvFloat("SAFLA_POWER_LIMIT", cfg.Safety.PowerLimit)

	cfg.Breaker.ConsecutiveFailureThreshold = uint32(getEnvInt("SAFLA_BREAKER_FAILURE_THRESHOLD", int(cfg.Breaker.ConsecutiveFailureThreshold)))
	cfg.Breaker.OpenDuration = getEnvDuration("SAFLA_BREAKER_OPEN_DURATION", cfg.Breaker.OpenDuration)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}
