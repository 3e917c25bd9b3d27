// Package natsjournal publishes CycleRecord summaries to a NATS subject,
// grounded in the teacher's internal/controlplane/unified.go cross-domain
// event bus (*nats.Conn, JSON-encoded publish).
package natsjournal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/asgard/safla/internal/safla/collab"
	"github.com/asgard/safla/internal/safla/journal"
	"github.com/asgard/safla/internal/safla/model"
)

// Journal publishes the minimal cycle record (§6 persisted state layout) to
// a configured NATS subject.
type Journal struct {
	conn    *nats.Conn
	subject string
}

// New builds a Journal bound to an already-connected NATS connection.
func New(conn *nats.Conn, subject string) *Journal {
	if subject == "" {
		subject = "safla.cycles"
	}
	return &Journal{conn: conn, subject: subject}
}

var _ collab.Journal = (*Journal)(nil)

// Append implements collab.Journal.
func (j *Journal) Append(ctx context.Context, record model.CycleRecord) error {
	payload, err := json.Marshal(journal.Reduce(record))
	if err != nil {
		return fmt.Errorf("natsjournal: marshal: %w", err)
	}
	if err := j.conn.Publish(j.subject, payload); err != nil {
		return fmt.Errorf("natsjournal: publish: %w", err)
	}
	return nil
}
