// Package experience implements the Experience Buffer (§4.K): a bounded
// deque of Experiences with importance derived once at insertion, queryable
// by recency, importance, and kind. The circular storage reuses the Ring
// Buffer's head/size indexing (internal/safla/ringbuffer) since both are
// the same "bounded FIFO window" shape, just over a different record type.
package experience

import (
	"sort"
	"sync"

	"github.com/asgard/safla/internal/safla/model"
)

const defaultCapacity = 50000

// importanceBase/weights implement §4.K's derivation table exactly.
const (
	importanceBase            = 0.5
	importanceSafetyViolation = 1.0
	importanceAnomaly         = 0.8
	importanceUserFeedback    = 0.7
	feedbackWeight            = 0.3
)

// DeriveImportance computes an Experience's fixed-at-creation importance
// (§4.K).
func DeriveImportance(kind model.ExperienceKind, feedbackScore *float64) float64 {
	importance := importanceBase
	switch kind {
	case model.ExperienceSafetyViolation:
		importance = importanceSafetyViolation
	case model.ExperienceAnomalyDetection:
		importance = importanceAnomaly
	case model.ExperienceUserFeedback:
		importance = importanceUserFeedback
	}

	if feedbackScore != nil {
		delta := *feedbackScore - 0.5
		if delta < 0 {
			delta = -delta
		}
		importance += feedbackWeight * delta * 2
		if importance > 1.0 {
			importance = 1.0
		}
	}
	return importance
}

// Buffer is a bounded, capacity-evicting store of Experiences (§4.K).
type Buffer struct {
	mu       sync.RWMutex
	data     []model.Experience
	capacity int
	head     int
	size     int
}

// New builds a Buffer. capacity defaults to 50000 (§4.K).
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Buffer{data: make([]model.Experience, capacity), capacity: capacity}
}

// Insert derives the Experience's importance and appends it, evicting the
// oldest entry (FIFO) when full.
func (b *Buffer) Insert(exp model.Experience) model.Experience {
	exp.Importance = DeriveImportance(exp.Kind, exp.FeedbackScore)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size < b.capacity {
		idx := (b.head + b.size) % b.capacity
		b.data[idx] = exp
		b.size++
		return exp
	}

	b.data[b.head] = exp
	b.head = (b.head + 1) % b.capacity
	return exp
}

// Len reports the current number of stored experiences.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// All returns every stored experience, oldest-first.
func (b *Buffer) All() []model.Experience {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

func (b *Buffer) snapshotLocked() []model.Experience {
	out := make([]model.Experience, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.data[(b.head+i)%b.capacity]
	}
	return out
}

// Recent returns the N most recently inserted experiences, newest-first.
func (b *Buffer) Recent(n int) []model.Experience {
	all := b.All()
	if n > len(all) {
		n = len(all)
	}
	out := make([]model.Experience, n)
	for i := 0; i < n; i++ {
		out[i] = all[len(all)-1-i]
	}
	return out
}

// ByImportance returns up to N experiences with Importance >= min, sorted
// by descending importance.
func (b *Buffer) ByImportance(n int, min float64) []model.Experience {
	all := b.All()
	filtered := make([]model.Experience, 0, len(all))
	for _, e := range all {
		if e.Importance >= min {
			filtered = append(filtered, e)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Importance > filtered[j].Importance
	})
	if n < len(filtered) {
		filtered = filtered[:n]
	}
	return filtered
}

// ByKind returns up to N experiences of the given kind, newest-first.
func (b *Buffer) ByKind(kind model.ExperienceKind, n int) []model.Experience {
	all := b.Recent(b.Len())
	out := make([]model.Experience, 0, n)
	for _, e := range all {
		if e.Kind != kind {
			continue
		}
		out = append(out, e)
		if len(out) == n {
			break
		}
	}
	return out
}

// Historical returns up to N experiences after skipping the first skip
// (oldest-first paging), for replay/analysis over the older tail of the
// buffer.
func (b *Buffer) Historical(skip, n int) []model.Experience {
	all := b.All()
	if skip >= len(all) {
		return nil
	}
	end := skip + n
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end]
}
