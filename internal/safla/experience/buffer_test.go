package experience

import (
	"testing"
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

func exp(kind model.ExperienceKind, ts int64, feedback *float64) model.Experience {
	return model.Experience{
		ID:        "e",
		Kind:      kind,
		Timestamp: time.Unix(ts, 0),
		FeedbackScore: feedback,
	}
}

func ptr(v float64) *float64 { return &v }

func TestDeriveImportanceBaseAndOverrides(t *testing.T) {
	cases := []struct {
		kind model.ExperienceKind
		want float64
	}{
		{model.ExperienceSensorData, 0.5},
		{model.ExperienceSafetyViolation, 1.0},
		{model.ExperienceAnomalyDetection, 0.8},
		{model.ExperienceUserFeedback, 0.7},
	}
	for _, c := range cases {
		got := DeriveImportance(c.kind, nil)
		if got != c.want {
			t.Fatalf("kind=%v: expected importance %v, got %v", c.kind, c.want, got)
		}
	}
}

func TestDeriveImportanceFeedbackAdjustment(t *testing.T) {
	// |1.0-0.5|*2 = 1.0, * 0.3 = 0.3, base 0.5 + 0.3 = 0.8
	got := DeriveImportance(model.ExperienceSensorData, ptr(1.0))
	if got != 0.8 {
		t.Fatalf("expected 0.8, got %v", got)
	}
}

func TestDeriveImportanceClampsToOne(t *testing.T) {
	got := DeriveImportance(model.ExperienceSafetyViolation, ptr(1.0))
	if got != 1.0 {
		t.Fatalf("expected clamp to 1.0, got %v", got)
	}
}

func TestInsertEvictsOldestWhenFull(t *testing.T) {
	b := New(3)
	for i := 0; i < 5; i++ {
		b.Insert(exp(model.ExperienceSensorData, int64(i), nil))
	}
	if b.Len() != 3 {
		t.Fatalf("expected len capped at 3, got %d", b.Len())
	}
	all := b.All()
	if all[0].Timestamp.Unix() != 2 {
		t.Fatalf("expected oldest surviving experience ts=2, got %v", all[0].Timestamp)
	}
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	b := New(10)
	for i := 0; i < 5; i++ {
		b.Insert(exp(model.ExperienceSensorData, int64(i), nil))
	}
	recent := b.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 results, got %d", len(recent))
	}
	if recent[0].Timestamp.Unix() != 4 || recent[1].Timestamp.Unix() != 3 {
		t.Fatalf("expected newest-first order, got %+v", recent)
	}
}

func TestByImportanceSortsDescending(t *testing.T) {
	b := New(10)
	b.Insert(exp(model.ExperienceSensorData, 1, nil))       // 0.5
	b.Insert(exp(model.ExperienceSafetyViolation, 2, nil))  // 1.0
	b.Insert(exp(model.ExperienceUserFeedback, 3, nil))     // 0.7

	out := b.ByImportance(10, 0.6)
	if len(out) != 2 {
		t.Fatalf("expected 2 results above 0.6, got %d", len(out))
	}
	if out[0].Importance < out[1].Importance {
		t.Fatalf("expected descending importance order, got %+v", out)
	}
}

func TestByKindFiltersAndLimits(t *testing.T) {
	b := New(10)
	b.Insert(exp(model.ExperienceAnomalyDetection, 1, nil))
	b.Insert(exp(model.ExperienceSensorData, 2, nil))
	b.Insert(exp(model.ExperienceAnomalyDetection, 3, nil))

	out := b.ByKind(model.ExperienceAnomalyDetection, 10)
	if len(out) != 2 {
		t.Fatalf("expected 2 anomaly-detection experiences, got %d", len(out))
	}
}

func TestHistoricalPaging(t *testing.T) {
	b := New(10)
	for i := 0; i < 6; i++ {
		b.Insert(exp(model.ExperienceSensorData, int64(i), nil))
	}
	page := b.Historical(2, 2)
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
	if page[0].Timestamp.Unix() != 2 || page[1].Timestamp.Unix() != 3 {
		t.Fatalf("unexpected page contents: %+v", page)
	}
}
