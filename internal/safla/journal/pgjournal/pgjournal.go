// Package pgjournal persists CycleRecord summaries to Postgres, grounded in
// the teacher's internal/platform/db package (database/sql + lib/pq driver).
package pgjournal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/asgard/safla/internal/safla/collab"
	"github.com/asgard/safla/internal/safla/journal"
	"github.com/asgard/safla/internal/safla/model"
)

// Journal persists the minimal cycle record (§6) to a `safla_cycles` table.
type Journal struct {
	db *sql.DB
}

// New wraps an already-open *sql.DB (opened with driver name "postgres").
func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

var _ collab.Journal = (*Journal)(nil)

// Schema is the DDL the caller is expected to have applied. It is exposed
// as a constant rather than run automatically, matching the teacher's
// convention of keeping migrations external to runtime code
// (internal/platform/db has no auto-migrate path either).
const Schema = `
CREATE TABLE IF NOT EXISTS safla_cycles (
	cycle_id       TEXT PRIMARY KEY,
	started_at     TIMESTAMPTZ NOT NULL,
	total_duration_ms BIGINT NOT NULL,
	success        BOOLEAN NOT NULL,
	phase_timings  JSONB NOT NULL,
	counters       JSONB NOT NULL
);`

// Append implements collab.Journal.
func (j *Journal) Append(ctx context.Context, record model.CycleRecord) error {
	minimal := journal.Reduce(record)

	phaseTimings := make(map[string]int64, len(minimal.PhaseTimings))
	for phase, d := range minimal.PhaseTimings {
		phaseTimings[string(phase)] = d.Milliseconds()
	}

	timingsJSON, err := json.Marshal(phaseTimings)
	if err != nil {
		return fmt.Errorf("pgjournal: marshal phase timings: %w", err)
	}
	countersJSON, err := json.Marshal(minimal.Counters)
	if err != nil {
		return fmt.Errorf("pgjournal: marshal counters: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO safla_cycles (cycle_id, started_at, total_duration_ms, success, phase_timings, counters)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cycle_id) DO NOTHING`,
		minimal.CycleID, minimal.Start, minimal.TotalDuration.Milliseconds(), minimal.Success, timingsJSON, countersJSON,
	)
	if err != nil {
		return fmt.Errorf("pgjournal: insert: %w", err)
	}
	return nil
}
