// services/points.go
package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"task-reward-system/models"
)

// RewardFactors are the inputs to one reward calculation. Optional fields
// are pointers; missing values default to a neutral 1.0 multiplier.
type RewardFactors struct {
	BasePoints          int
	Difficulty          string // easy | medium | hard
	UserLevel           int
	TasksCompletedToday int
	TotalTasksCompleted int64
	TaskCategory        string
	EstimatedTime       string // task's human estimate, e.g. "30 minutes", "1-2 hours"
	TimeSpentMinutes    *float64
	QualityScore        *float64 // 0–100
}

// RewardBreakdown records every multiplier applied. Persisted as JSONB on
// the submission for auditability.
type RewardBreakdown struct {
	Difficulty float64 `json:"difficulty"`
	Level      float64 `json:"level"`
	Daily      float64 `json:"daily"`
	Category   float64 `json:"category"`
	Quality    float64 `json:"quality"`
	Time       float64 `json:"time"`
	Total      float64 `json:"total"`
}

type RewardResult struct {
	FinalPoints int             `json:"final_points"`
	Breakdown   RewardBreakdown `json:"breakdown"`
	Explanation []string        `json:"explanation"`
}

// Category bonus table (tunable via config later)
var DefaultCategoryBonuses = map[string]float64{
	models.CategoryContentCreation: 1.2,
	models.CategorySocialMedia:     0.9,
	models.CategorySurvey:          1.0,
	models.CategoryAppTesting:      1.1,
	models.CategoryResearch:        1.1,
}

// Variety bonus: rewards long-term engagement, capped at +0.2
const (
	VarietyBonusPerTask = 0.001
	VarietyBonusCap     = 0.2
	LevelPenaltyStep    = 0.1
	LevelPenaltyFloor   = 0.25
)

// PointsCalculator maps a base reward plus contextual factors to a final
// integer award. Pure and deterministic — no I/O, no failure modes.
type PointsCalculator struct {
	CategoryBonuses map[string]float64
}

func NewPointsCalculator() *PointsCalculator {
	return &PointsCalculator{CategoryBonuses: DefaultCategoryBonuses}
}

// Calculate applies the multiplicative modifier chain to f.BasePoints.
// The explanation trail lists every factor whose multiplier deviates from
// 1.0 and ends with the literal arithmetic, so the same inputs always
// reproduce the same persisted trail.
func (pc *PointsCalculator) Calculate(f RewardFactors) RewardResult {
	var explanation []string

	difficulty := difficultyMultiplier(f.Difficulty)
	if difficulty != 1.0 {
		explanation = append(explanation, fmt.Sprintf("Difficulty (%s): x%.2f", normalizeDifficulty(f.Difficulty), difficulty))
	}

	level := levelMultiplier(f.UserLevel)
	if level != 1.0 {
		explanation = append(explanation, fmt.Sprintf("Level penalty (level %d): x%.2f", maxInt(f.UserLevel, 1), level))
	}

	daily := dailyMultiplier(f.TasksCompletedToday)
	if daily != 1.0 {
		explanation = append(explanation, fmt.Sprintf("Daily tasks (%d today): x%.2f", f.TasksCompletedToday, daily))
	}

	category := pc.categoryMultiplier(f.TaskCategory, f.TotalTasksCompleted)
	if category != 1.0 {
		explanation = append(explanation, fmt.Sprintf("Category bonus (%s): x%.2f", categoryLabel(f.TaskCategory), category))
	}

	quality := 1.0
	if f.QualityScore != nil {
		quality = qualityMultiplier(*f.QualityScore)
		if quality != 1.0 {
			explanation = append(explanation, fmt.Sprintf("Quality score (%.0f): x%.2f", *f.QualityScore, quality))
		}
	}

	timeBonus := 1.0
	if f.TimeSpentMinutes != nil && *f.TimeSpentMinutes >= 0 {
		if estimate, ok := parseEstimatedMinutes(f.EstimatedTime); ok && estimate > 0 {
			ratio := *f.TimeSpentMinutes / estimate
			timeBonus = timeMultiplier(ratio)
			if timeBonus != 1.0 {
				explanation = append(explanation, fmt.Sprintf("Time bonus (%.0f%% of estimate): x%.2f", ratio*100, timeBonus))
			}
		}
	}

	total := difficulty * level * daily * category * quality * timeBonus

	base := f.BasePoints
	if base < 0 {
		base = 0
	}
	// +1e-9 guards against float representation error (e.g. 1.2*1.2*100
	// landing a hair below 144); minimum one point always holds.
	final := int(math.Floor(float64(base)*total + 1e-9))
	if final < 1 {
		final = 1
	}

	explanation = append(explanation, fmt.Sprintf("%d base x %.4f = %d points", base, total, final))

	return RewardResult{
		FinalPoints: final,
		Breakdown: RewardBreakdown{
			Difficulty: difficulty,
			Level:      level,
			Daily:      daily,
			Category:   category,
			Quality:    quality,
			Time:       timeBonus,
			Total:      math.Round(total*10000) / 10000,
		},
		Explanation: explanation,
	}
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case models.DifficultyEasy:
		return models.DifficultyEasy
	case models.DifficultyHard:
		return models.DifficultyHard
	default:
		return models.DifficultyMedium
	}
}

// Harder tasks retain full value; easier tasks are discounted.
func difficultyMultiplier(d string) float64 {
	switch normalizeDifficulty(d) {
	case models.DifficultyEasy:
		return 0.6
	case models.DifficultyHard:
		return 1.0
	default:
		return 0.8
	}
}

// Linear decay per level with a floor at 25% — progression yields
// diminishing marginal reward per task.
func levelMultiplier(level int) float64 {
	if level < 1 {
		level = 1
	}
	m := 1.0 - float64(level-1)*LevelPenaltyStep
	return math.Max(LevelPenaltyFloor, m)
}

// Diminishing returns within a single day.
func dailyMultiplier(tasksToday int) float64 {
	switch {
	case tasksToday <= 3:
		return 1.0
	case tasksToday <= 6:
		return 0.8
	case tasksToday <= 10:
		return 0.6
	default:
		return 0.4
	}
}

func (pc *PointsCalculator) categoryMultiplier(category string, totalTasks int64) float64 {
	base, ok := pc.CategoryBonuses[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		base = 1.0
	}
	if totalTasks < 0 {
		totalTasks = 0
	}
	variety := math.Min(VarietyBonusCap, float64(totalTasks)*VarietyBonusPerTask)
	return base + variety
}

func categoryLabel(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return models.CategoryOther
	}
	return c
}

// Steep penalty below the 50-point threshold.
func qualityMultiplier(score float64) float64 {
	switch {
	case score >= 90:
		return 1.3
	case score >= 80:
		return 1.2
	case score >= 70:
		return 1.1
	case score >= 60:
		return 1.0
	case score >= 50:
		return 0.8
	default:
		return 0.6
	}
}

func timeMultiplier(ratio float64) float64 {
	switch {
	case ratio <= 0.7:
		return 1.2
	case ratio <= 1.0:
		return 1.1
	case ratio <= 1.5:
		return 1.0
	default:
		return 0.9
	}
}

// parseEstimatedMinutes parses human estimates like "30 minutes", "1 hour",
// "1-2 hours" or a bare number (minutes). Ranges average the two ends.
// Unparseable strings report ok=false and the time bonus stays neutral.
func parseEstimatedMinutes(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	unit := 1.0
	if strings.Contains(s, "hour") || strings.Contains(s, "hr") {
		unit = 60.0
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	num := strings.Trim(b.String(), "-.")
	if num == "" {
		return 0, false
	}

	parts := strings.SplitN(num, "-", 2)
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false
	}
	value := lo
	if len(parts) == 2 && parts[1] != "" {
		hi, err := strconv.ParseFloat(parts[1], 64)
		if err == nil && hi > 0 {
			value = (lo + hi) / 2
		}
	}
	if value <= 0 {
		return 0, false
	}
	return value * unit, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
