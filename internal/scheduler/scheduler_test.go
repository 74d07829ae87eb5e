package scheduler

import (
	"testing"
	"time"
)

func TestDailySpec(t *testing.T) {
	got, err := DailySpec("08:05")
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	if got != "0 5 8 * * *" {
		t.Fatalf("unexpected spec %q", got)
	}
	for _, bad := range []string{"8", "24:00", "12:60", "ab:cd", ""} {
		if _, err := DailySpec(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestScheduleDailyComputesNextRun(t *testing.T) {
	s := New(time.UTC)
	id, err := s.ScheduleDaily("23:59", func() {})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.Start()
	defer s.Stop()
	next := s.Next(id)
	if next.Hour() != 23 || next.Minute() != 59 || next.Second() != 0 {
		t.Fatalf("unexpected next run %v", next)
	}
	if _, err := s.ScheduleDaily("nope", func() {}); err == nil {
		t.Fatalf("expected error")
	}
}
