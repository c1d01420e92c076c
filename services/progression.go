package services

import (
	"fmt"
	"math"
	"time"

	"task-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LevelConfig: points needed for *next* level (e.g., level 1 → 2 needs BasePointsPerLevel * 1^1.2)
const BasePointsPerLevel = 100

// pointsForNextLevel returns points required to reach level+1 from current level
func pointsForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	// L_n = floor(BasePointsPerLevel * n^1.2)
	return int64(float64(BasePointsPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// NextLevelAt returns the total-points threshold at which the given level
// rolls over to the next one.
func NextLevelAt(level int) int64 {
	return int64(BasePointsPerLevel)*int64(level) + pointsForNextLevel(level)
}

type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// EnsureProgressRecord ensures a UserProgress row exists (idempotent)
func (s *ProgressionService) EnsureProgressRecord(externalUserID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error
	if err == gorm.ErrRecordNotFound {
		prog = models.UserProgress{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			TotalPoints:    0,
			Level:          1,
		}
		if err := s.DB.Create(&prog).Error; err != nil {
			return nil, err
		}
		return &prog, nil
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// DailyTasksCompleted returns the user's approved-task count for the current
// day, rolling the counter over when last_task_date is a previous day.
func DailyTasksCompleted(prog *models.UserProgress, now time.Time) int {
	if prog.LastTaskDate == nil {
		return 0
	}
	last := prog.LastTaskDate.UTC()
	today := now.UTC()
	if last.Year() == today.Year() && last.YearDay() == today.YearDay() {
		return prog.TasksCompletedToday
	}
	return 0
}

// ApplyApprovedSubmission updates totals, the daily counter and level inside
// the caller's transaction, and appends the point-transaction audit row.
func (s *ProgressionService) ApplyApprovedSubmission(tx *gorm.DB, externalUserID string, award *models.PointTransaction) (*models.UserProgress, error) {
	var prog models.UserProgress
	if err := tx.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
		return nil, fmt.Errorf("progress record not found for %s", externalUserID)
	}

	now := time.Now()
	prog.TasksCompletedToday = DailyTasksCompleted(&prog, now) + 1
	prog.LastTaskDate = &now
	prog.TotalTasksCompleted++
	prog.TotalPoints += int64(award.Points)

	// Level-up logic: accumulate until enough for next level
	for prog.TotalPoints >= NextLevelAt(prog.Level) {
		prog.Level++
		levelUpAt := time.Now()
		prog.LastLevelUpAt = &levelUpAt
	}

	if err := tx.Save(&prog).Error; err != nil {
		return nil, err
	}

	if err := tx.Create(award).Error; err != nil {
		return nil, err
	}

	// Auto-award badges
	badgeSvc := NewBadgeService(s.DB)
	_ = badgeSvc.AutoAwardBadges(externalUserID) // fire-and-forget

	updated := prog
	return &updated, nil
}

// GrantPoints is the admin path: no calculator, no submission — just a
// straight increment with an audit row.
func (s *ProgressionService) GrantPoints(externalUserID string, points int, reason string) (*models.UserProgress, error) {
	var updatedProg *models.UserProgress
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.EnsureProgressRecord(externalUserID); err != nil {
			return err
		}
		award := &models.PointTransaction{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Points:         points,
			Reason:         reason,
		}

		var prog models.UserProgress
		if err := tx.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
			return err
		}
		prog.TotalPoints += int64(points)
		for prog.TotalPoints >= NextLevelAt(prog.Level) {
			prog.Level++
			now := time.Now()
			prog.LastLevelUpAt = &now
		}
		if err := tx.Save(&prog).Error; err != nil {
			return err
		}
		if err := tx.Create(award).Error; err != nil {
			return err
		}

		updatedProg = &models.UserProgress{}
		*updatedProg = prog
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updatedProg, nil
}

// RecordRejection bumps the rejection counters (no points involved).
func (s *ProgressionService) RecordRejection(tx *gorm.DB, externalUserID string) error {
	return tx.Model(&models.UserProgress{}).
		Where("external_user_id = ?", externalUserID).
		UpdateColumn("total_rejected", gorm.Expr("total_rejected + 1")).Error
}

// GetUserHistory returns paginated point transactions + submissions
func (s *ProgressionService) GetUserHistory(externalUserID string, page, size int) (map[string]interface{}, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	var totalTransactions, totalSubmissions int64
	s.DB.Model(&models.PointTransaction{}).Where("external_user_id = ?", externalUserID).Count(&totalTransactions)
	s.DB.Model(&models.Submission{}).Where("external_user_id = ?", externalUserID).Count(&totalSubmissions)

	var transactions []models.PointTransaction
	s.DB.Where("external_user_id = ?", externalUserID).
		Order("created_at DESC").
		Limit(size).Offset(offset).
		Find(&transactions)

	var submissions []models.Submission
	s.DB.Where("external_user_id = ?", externalUserID).
		Order("submitted_at DESC").
		Limit(size).Offset(offset).
		Find(&submissions)

	totalItems := totalTransactions + totalSubmissions
	totalPages := int((totalItems + int64(size) - 1) / int64(size))

	return map[string]interface{}{
		"transactions":       transactions,
		"submissions":        submissions,
		"page":               page,
		"size":               size,
		"total_items":        totalItems,
		"total_pages":        totalPages,
		"total_transactions": totalTransactions,
		"total_submissions":  totalSubmissions,
	}, nil
}
