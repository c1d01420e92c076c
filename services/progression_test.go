package services

import (
	"testing"
	"time"

	"task-reward-system/models"
)

func TestPointsForNextLevelGrowth(t *testing.T) {
	// floor(100 * n^1.2)
	cases := []struct {
		level int
		want  int64
	}{
		{1, 100},
		{2, 229},
		{5, 689},
		{10, 1584},
	}
	for _, tc := range cases {
		if got := pointsForNextLevel(tc.level); got != tc.want {
			t.Errorf("pointsForNextLevel(%d) = %d, want %d", tc.level, got, tc.want)
		}
	}

	if got := pointsForNextLevel(0); got != pointsForNextLevel(1) {
		t.Errorf("levels below 1 must clamp to level 1, got %d", got)
	}
}

func TestNextLevelAtIsMonotonic(t *testing.T) {
	prev := int64(0)
	for level := 1; level <= 50; level++ {
		at := NextLevelAt(level)
		if at <= prev {
			t.Fatalf("threshold not increasing at level %d: %d <= %d", level, at, prev)
		}
		prev = at
	}
}

func TestDailyTasksCompletedRollover(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	// No activity yet.
	if got := DailyTasksCompleted(&models.UserProgress{}, now); got != 0 {
		t.Fatalf("expected 0 with no last task date, got %d", got)
	}

	// Same day → counter carries.
	sameDay := now.Add(-3 * time.Hour)
	prog := &models.UserProgress{TasksCompletedToday: 4, LastTaskDate: &sameDay}
	if got := DailyTasksCompleted(prog, now); got != 4 {
		t.Fatalf("expected 4 on same day, got %d", got)
	}

	// Previous day → counter resets.
	yesterday := now.Add(-24 * time.Hour)
	prog = &models.UserProgress{TasksCompletedToday: 4, LastTaskDate: &yesterday}
	if got := DailyTasksCompleted(prog, now); got != 0 {
		t.Fatalf("expected rollover to 0, got %d", got)
	}

	// Same calendar day across a year boundary check: Dec 31 vs Jan 1.
	dec31 := time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)
	prog = &models.UserProgress{TasksCompletedToday: 2, LastTaskDate: &dec31}
	jan1 := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	if got := DailyTasksCompleted(prog, jan1); got != 0 {
		t.Fatalf("expected rollover across year boundary, got %d", got)
	}
}
