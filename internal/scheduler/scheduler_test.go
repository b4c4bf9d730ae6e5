package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"classpublisher/internal/infra"
)

func newScheduler(t *testing.T, times []string, tz string) *Scheduler {
	t.Helper()
	s, err := New(
		infra.ScheduleConfig{Times: times, Timezone: tz},
		infra.Logger(zerolog.New(io.Discard)),
		func(context.Context) {},
	)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s
}

func TestNextOccurrencePicksLaterTimeToday(t *testing.T) {
	s := newScheduler(t, []string{"11:30", "07:30"}, "UTC")

	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	next := s.nextOccurrence(now)

	want := time.Date(2026, 3, 4, 11, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextOccurrenceBeforeFirstTime(t *testing.T) {
	s := newScheduler(t, []string{"07:30", "11:30"}, "UTC")

	now := time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC)
	next := s.nextOccurrence(now)

	want := time.Date(2026, 3, 4, 7, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextOccurrenceRollsOverToTomorrow(t *testing.T) {
	s := newScheduler(t, []string{"07:30", "11:30"}, "UTC")

	now := time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC)
	next := s.nextOccurrence(now)

	want := time.Date(2026, 3, 5, 7, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextOccurrenceExactMatchRollsForward(t *testing.T) {
	s := newScheduler(t, []string{"07:30", "11:30"}, "UTC")

	now := time.Date(2026, 3, 4, 7, 30, 0, 0, time.UTC)
	next := s.nextOccurrence(now)

	want := time.Date(2026, 3, 4, 11, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNewRejectsInvalidTimes(t *testing.T) {
	logger := infra.Logger(zerolog.New(io.Discard))
	job := func(context.Context) {}

	for _, times := range [][]string{{"25:00"}, {"10:75"}, {"notatime"}, {}} {
		if _, err := New(infra.ScheduleConfig{Times: times}, logger, job); err == nil {
			t.Errorf("New accepted times %v", times)
		}
	}
}

func TestNewRequiresJob(t *testing.T) {
	logger := infra.Logger(zerolog.New(io.Discard))
	if _, err := New(infra.ScheduleConfig{Times: []string{"07:30"}}, logger, nil); err == nil {
		t.Fatal("New accepted nil job")
	}
}
