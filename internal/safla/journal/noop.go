// Package journal provides Journal (§6) implementations: a default no-op,
// and optional NATS/Postgres adapters in the natsjournal/pgjournal
// subpackages.
package journal

import (
	"context"

	"github.com/asgard/safla/internal/safla/collab"
	"github.com/asgard/safla/internal/safla/model"
)

// NoOp is the default Journal: it drops every record. The Safety Monitor
// and Orchestrator work identically with or without a real journal attached
// (§6: "optional; used by the Safety Monitor and operators").
type NoOp struct{}

var _ collab.Journal = NoOp{}

// Append implements collab.Journal.
func (NoOp) Append(context.Context, model.CycleRecord) error { return nil }
