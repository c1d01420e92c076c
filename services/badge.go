package services

import (
	"fmt"

	"task-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// SeedBadgeTypes upserts the static triggers into badge_types and backfills
// their IDs so awarded badges reference real rows. Called once at boot.
func (s *BadgeService) SeedBadgeTypes() error {
	for i := range models.BadgeTriggers {
		bt := &models.BadgeTriggers[i]

		var existing models.BadgeType
		err := s.DB.Where("code = ?", bt.Code).First(&existing).Error
		if err == nil {
			bt.ID = existing.ID
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		bt.ID = uuid.NewString()
		if err := s.DB.Create(bt).Error; err != nil {
			return err
		}
	}
	return nil
}

// AutoAwardBadges checks all badge triggers for a user after a progress update
func (s *BadgeService) AutoAwardBadges(externalUserID string) error {
	var prog models.UserProgress
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
		return err
	}

	var awarded []string
	for _, trigger := range models.BadgeTriggers {
		if s.meetsThreshold(&prog, trigger.Threshold) {
			// Check if already awarded
			var count int64
			s.DB.Model(&models.UserBadge{}).
				Where("external_user_id = ? AND badge_type_id = ?", externalUserID, trigger.ID).
				Count(&count)
			if count == 0 {
				userBadge := models.UserBadge{
					ExternalUserID: externalUserID,
					BadgeTypeID:    trigger.ID,
				}
				if err := s.DB.Create(&userBadge).Error; err != nil {
					return err
				}
				awarded = append(awarded, trigger.Name)
				fmt.Printf("Badge awarded: %s → %s\n", trigger.Name, externalUserID)
			}
		}
	}

	if len(awarded) > 0 {
		// Optional: emit event for push notification
	}
	return nil
}

func (s *BadgeService) meetsThreshold(prog *models.UserProgress, req map[string]int64) bool {
	for key, required := range req {
		switch key {
		case "total_tasks_completed":
			if prog.TotalTasksCompleted < required {
				return false
			}
		case "total_submissions":
			if prog.TotalSubmissions < required {
				return false
			}
		case "total_points":
			if prog.TotalPoints < required {
				return false
			}
		case "level":
			if int64(prog.Level) < required {
				return false
			}
		case "event": // special: always true (e.g., signup)
			return true
		}
	}
	return true
}
