package natsjournal

import "testing"

func TestNewDefaultsSubjectWhenEmpty(t *testing.T) {
	j := New(nil, "")
	if j.subject != "safla.cycles" {
		t.Fatalf("expected default subject safla.cycles, got %q", j.subject)
	}
}

func TestNewKeepsExplicitSubject(t *testing.T) {
	j := New(nil, "custom.subject")
	if j.subject != "custom.subject" {
		t.Fatalf("expected explicit subject to be kept, got %q", j.subject)
	}
}
