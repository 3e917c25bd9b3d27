package journal

import (
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

// MinimalRecord is the "Persisted state layout" row from §6: everything
// else is in-memory and recoverable from the collaborator interfaces.
type MinimalRecord struct {
	CycleID       string
	Start         time.Time
	TotalDuration time.Duration
	PhaseTimings  map[model.CyclePhase]time.Duration
	Success       bool
	Counters      map[string]int
}

// Reduce converts a full CycleRecord to the minimal persisted shape.
func Reduce(rec model.CycleRecord) MinimalRecord {
	timings := make(map[model.CyclePhase]time.Duration, len(rec.Phases))
	counters := make(map[string]int, 4)
	for _, p := range rec.Phases {
		timings[p.Phase] = p.Duration()
		counters[string(p.Phase)+"_"+string(p.Outcome)]++
	}
	return MinimalRecord{
		CycleID:       rec.ID,
		Start:         rec.Start,
		TotalDuration: rec.TotalDuration,
		PhaseTimings:  timings,
		Success:       rec.Success,
		Counters:      counters,
	}
}
