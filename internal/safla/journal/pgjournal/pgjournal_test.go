package pgjournal

import (
	"strings"
	"testing"
)

func TestSchemaDeclaresExpectedTable(t *testing.T) {
	if !strings.Contains(Schema, "safla_cycles") {
		t.Fatalf("expected schema to declare the safla_cycles table")
	}
	for _, column := range []string{"cycle_id", "started_at", "total_duration_ms", "success", "phase_timings", "counters"} {
		if !strings.Contains(Schema, column) {
			t.Fatalf("expected schema to declare column %q", column)
		}
	}
}
