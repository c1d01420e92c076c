package services

import (
	"math"
	"reflect"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestCalculateNeutralFactors(t *testing.T) {
	calc := NewPointsCalculator()

	result := calc.Calculate(RewardFactors{
		BasePoints:   100,
		Difficulty:   "hard",
		UserLevel:    1,
		TaskCategory: "survey", // bonus 1.0, no variety
	})

	if result.FinalPoints != 100 {
		t.Fatalf("expected 100 points with all-neutral factors, got %d", result.FinalPoints)
	}
}

func TestCalculateCompoundsMultiplicatively(t *testing.T) {
	calc := NewPointsCalculator()

	// 100 base, content_creation bonus 1.2, quality 85 → 1.2: floor(100*1.44) = 144.
	result := calc.Calculate(RewardFactors{
		BasePoints:   100,
		Difficulty:   "hard",
		UserLevel:    1,
		TaskCategory: "content_creation",
		QualityScore: floatPtr(85),
	})

	if result.FinalPoints != 144 {
		t.Fatalf("expected 144 points (100 x 1.2 x 1.2), got %d", result.FinalPoints)
	}
	if result.Breakdown.Category != 1.2 || result.Breakdown.Quality != 1.2 {
		t.Fatalf("unexpected breakdown: %+v", result.Breakdown)
	}
}

func TestCalculateWorstCaseScenario(t *testing.T) {
	calc := NewPointsCalculator()

	// 50 base, easy (0.6), level 11 hits the 0.25 floor, 12 tasks today
	// (0.4), unknown category neutral: floor(50 * 0.06) = 3.
	result := calc.Calculate(RewardFactors{
		BasePoints:          50,
		Difficulty:          "easy",
		UserLevel:           11,
		TasksCompletedToday: 12,
		TaskCategory:        "something_new",
	})

	if result.FinalPoints != 3 {
		t.Fatalf("expected 3 points, got %d", result.FinalPoints)
	}
}

func TestCalculateQualityNeverDecreasesPoints(t *testing.T) {
	calc := NewPointsCalculator()

	prev := 0
	for _, score := range []float64{40, 55, 70, 85, 95} {
		result := calc.Calculate(RewardFactors{
			BasePoints:   100,
			Difficulty:   "hard",
			UserLevel:    1,
			TaskCategory: "survey",
			QualityScore: floatPtr(score),
		})
		if result.FinalPoints < prev {
			t.Fatalf("points decreased when quality rose to %.0f: %d < %d", score, result.FinalPoints, prev)
		}
		prev = result.FinalPoints
	}
}

func TestCalculateNeverBelowOne(t *testing.T) {
	calc := NewPointsCalculator()

	// Worst case on every axis: 1 * 0.6 * 0.25 * 0.4 * 0.9 * 0.6 << 1.
	result := calc.Calculate(RewardFactors{
		BasePoints:          1,
		Difficulty:          "easy",
		UserLevel:           100,
		TasksCompletedToday: 11,
		TaskCategory:        "social_media",
		QualityScore:        floatPtr(30),
	})

	if result.FinalPoints != 1 {
		t.Fatalf("expected floor of 1 point, got %d", result.FinalPoints)
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	calc := NewPointsCalculator()
	factors := RewardFactors{
		BasePoints:          80,
		Difficulty:          "medium",
		UserLevel:           4,
		TasksCompletedToday: 5,
		TotalTasksCompleted: 120,
		TaskCategory:        "app_testing",
		EstimatedTime:       "1 hour",
		TimeSpentMinutes:    floatPtr(40),
		QualityScore:        floatPtr(72),
	}

	first := calc.Calculate(factors)
	second := calc.Calculate(factors)

	if first.FinalPoints != second.FinalPoints {
		t.Fatalf("points differ across runs: %d vs %d", first.FinalPoints, second.FinalPoints)
	}
	if !reflect.DeepEqual(first.Explanation, second.Explanation) {
		t.Fatalf("explanation trail differs across runs:\n%v\n%v", first.Explanation, second.Explanation)
	}
}

func TestDifficultyMultiplier(t *testing.T) {
	cases := []struct {
		difficulty string
		want       float64
	}{
		{"easy", 0.6},
		{"medium", 0.8},
		{"hard", 1.0},
		{"HARD", 1.0},
		{"extreme", 0.8}, // unknown degrades to medium
		{"", 0.8},
	}
	for _, tc := range cases {
		if got := difficultyMultiplier(tc.difficulty); got != tc.want {
			t.Errorf("difficultyMultiplier(%q) = %.2f, want %.2f", tc.difficulty, got, tc.want)
		}
	}
}

func TestLevelMultiplierFloor(t *testing.T) {
	if got := levelMultiplier(1); got != 1.0 {
		t.Fatalf("level 1 should be neutral, got %.2f", got)
	}
	if got := levelMultiplier(5); got != 0.6 {
		t.Fatalf("level 5 should be 0.6, got %.2f", got)
	}
	if got := levelMultiplier(100); got != 0.25 {
		t.Fatalf("level 100 should hit the 0.25 floor, got %.2f", got)
	}
	if got := levelMultiplier(0); got != 1.0 {
		t.Fatalf("level 0 should clamp to level 1, got %.2f", got)
	}
}

func TestDailyMultiplierBoundaries(t *testing.T) {
	cases := []struct {
		today int
		want  float64
	}{
		{0, 1.0},
		{3, 1.0},
		{4, 0.8},
		{6, 0.8},
		{7, 0.6},
		{10, 0.6},
		{11, 0.4},
		{50, 0.4},
	}
	for _, tc := range cases {
		if got := dailyMultiplier(tc.today); got != tc.want {
			t.Errorf("dailyMultiplier(%d) = %.2f, want %.2f", tc.today, got, tc.want)
		}
	}
}

func TestQualityMultiplierMonotonic(t *testing.T) {
	scores := []float64{45, 55, 65, 75, 85, 95}
	want := []float64{0.6, 0.8, 1.0, 1.1, 1.2, 1.3}

	prev := 0.0
	for i, score := range scores {
		got := qualityMultiplier(score)
		if got != want[i] {
			t.Errorf("qualityMultiplier(%.0f) = %.2f, want %.2f", score, got, want[i])
		}
		if got < prev {
			t.Errorf("quality multiplier not monotonic at score %.0f", score)
		}
		prev = got
	}
}

func TestVarietyBonusCapped(t *testing.T) {
	calc := NewPointsCalculator()

	// 120 completed tasks → +0.12 variety on top of survey's 1.0.
	if got := calc.categoryMultiplier("survey", 120); math.Abs(got-1.12) > 1e-9 {
		t.Fatalf("expected 1.12 category multiplier, got %.4f", got)
	}

	// 500 completed tasks would be +0.5 uncapped; cap holds at +0.2.
	if got := calc.categoryMultiplier("survey", 500); math.Abs(got-1.2) > 1e-9 {
		t.Fatalf("expected variety cap at 1.2, got %.4f", got)
	}

	// Unknown category still earns the variety bonus over a neutral base.
	if got := calc.categoryMultiplier("other", 500); math.Abs(got-1.2) > 1e-9 {
		t.Fatalf("expected 1.2 for unknown category at cap, got %.4f", got)
	}
}

func TestTimeMultiplierTiers(t *testing.T) {
	cases := []struct {
		ratio float64
		want  float64
	}{
		{0.5, 1.2},
		{0.7, 1.2},
		{0.9, 1.1},
		{1.0, 1.1},
		{1.3, 1.0},
		{1.5, 1.0},
		{2.0, 0.9},
	}
	for _, tc := range cases {
		if got := timeMultiplier(tc.ratio); got != tc.want {
			t.Errorf("timeMultiplier(%.2f) = %.2f, want %.2f", tc.ratio, got, tc.want)
		}
	}
}

func TestParseEstimatedMinutes(t *testing.T) {
	cases := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"30 minutes", 30, true},
		{"1 hour", 60, true},
		{"2 hours", 120, true},
		{"1-2 hours", 90, true}, // range averages to 1.5h
		{"45", 45, true},
		{"1.5 hrs", 90, true},
		{"unknown", 0, false},
		{"", 0, false},
		{"0 minutes", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseEstimatedMinutes(tc.input)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("parseEstimatedMinutes(%q) = (%.1f, %t), want (%.1f, %t)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCalculateUnparsableEstimateSkipsTimeBonus(t *testing.T) {
	calc := NewPointsCalculator()

	result := calc.Calculate(RewardFactors{
		BasePoints:       100,
		Difficulty:       "hard",
		UserLevel:        1,
		TaskCategory:     "survey",
		EstimatedTime:    "a while",
		TimeSpentMinutes: floatPtr(10),
	})

	if result.Breakdown.Time != 1.0 {
		t.Fatalf("unparsable estimate must leave time multiplier neutral, got %.2f", result.Breakdown.Time)
	}
	if result.FinalPoints != 100 {
		t.Fatalf("expected 100 points, got %d", result.FinalPoints)
	}
}
