package metrics

import "testing"

func TestGetReturnsASingleton(t *testing.T) {
	a := Get()
	b := Get()
	if a != b {
		t.Fatalf("expected Get() to return the same *Metrics instance across calls")
	}
}

func TestHandlerIsNotNil(t *testing.T) {
	if Handler() == nil {
		t.Fatalf("expected a non-nil scrape handler")
	}
}

func TestCollectorsAcceptObservations(t *testing.T) {
	m := Get()

	m.CyclesTotal.WithLabelValues("house-1", "true").Inc()
	m.CycleDuration.Observe(0.05)
	m.PhaseDuration.WithLabelValues("sense").Observe(0.01)
	m.PhaseOutcomesTotal.WithLabelValues("sense", "success").Inc()
	m.ReadingsIngestedTotal.WithLabelValues("temperature").Inc()
	m.ReadingsRejectedTotal.WithLabelValues("temperature").Inc()
	m.AnomaliesDetectedTotal.WithLabelValues("statistical").Inc()
	m.CacheHitsTotal.Inc()
	m.CacheMissesTotal.Inc()
	m.ActionsSynthesizedTotal.WithLabelValues("set_device_state").Inc()
	m.ActionsExecutedTotal.WithLabelValues("completed").Inc()
	m.ActionsRolledBackTotal.Inc()
	m.SafetyViolationsTotal.WithLabelValues("critical_keyword").Inc()
	m.SafeModeActive.Set(1)
	m.LearnExperiencesTotal.Inc()
	m.LearnPatternsFound.Set(3)
	m.LearnOptimizerEpsilon.Set(0.2)
	m.BreakerState.WithLabelValues("sense").Set(0)
	m.TuningAdjustmentsTotal.WithLabelValues("tick_interval").Inc()
}
