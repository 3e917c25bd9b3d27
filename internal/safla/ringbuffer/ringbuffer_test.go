package ringbuffer

import (
	"testing"

	"github.com/asgard/safla/internal/safla/model"
)

func reading(sensor string, ts float64) model.NormalizedReading {
	return model.NormalizedReading{
		Reading: model.Reading{SensorID: sensor, Timestamp: ts},
	}
}

func TestPushWithinCapacity(t *testing.T) {
	rb := New(5)
	for i := 0; i < 3; i++ {
		rb.Push(reading("s1", float64(i)))
	}
	if rb.Len() != 3 {
		t.Fatalf("expected len 3, got %d", rb.Len())
	}
}

func TestPushEvictsOldestWhenFull(t *testing.T) {
	rb := New(3)
	for i := 0; i < 5; i++ {
		rb.Push(reading("s1", float64(i)))
	}
	if rb.Len() != 3 {
		t.Fatalf("expected len capped at 3, got %d", rb.Len())
	}

	snap := rb.Snapshot()
	if snap[0].Timestamp != 2 {
		t.Fatalf("expected oldest surviving reading ts=2, got %v", snap[0].Timestamp)
	}
	if snap[len(snap)-1].Timestamp != 4 {
		t.Fatalf("expected newest reading ts=4, got %v", snap[len(snap)-1].Timestamp)
	}
}

func TestSnapshotLastN(t *testing.T) {
	rb := New(10)
	for i := 0; i < 6; i++ {
		rb.Push(reading("s1", float64(i)))
	}
	last3 := rb.SnapshotLastN(3)
	if len(last3) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(last3))
	}
	if last3[0].Timestamp != 3 || last3[2].Timestamp != 5 {
		t.Fatalf("unexpected window: %+v", last3)
	}
}

func TestQueryBySensor(t *testing.T) {
	rb := New(10)
	rb.Push(reading("a", 0))
	rb.Push(reading("b", 1))
	rb.Push(reading("a", 2))

	onlyA := rb.QueryBySensor("a")
	if len(onlyA) != 2 {
		t.Fatalf("expected 2 readings for sensor a, got %d", len(onlyA))
	}
}

func TestQueryByTimeWindow(t *testing.T) {
	rb := New(10)
	for i := 0; i < 10; i++ {
		rb.Push(reading("a", float64(i)))
	}
	inWindow := rb.QueryByTimeWindow(3, 6)
	if len(inWindow) != 4 {
		t.Fatalf("expected 4 readings in [3,6], got %d", len(inWindow))
	}
}
