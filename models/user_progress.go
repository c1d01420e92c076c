package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProgress tracks point totals and level for each user (denormalized for performance)
type UserProgress struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Core progression
	TotalPoints int64 `json:"total_points" gorm:"default:0"`
	Level       int   `json:"level" gorm:"default:1"`

	// Daily diminishing-returns counter (rolled over by date)
	TasksCompletedToday int        `json:"tasks_completed_today" gorm:"default:0"`
	LastTaskDate        *time.Time `json:"last_task_date,omitempty"`

	// Activity counters
	TotalTasksCompleted int64 `json:"total_tasks_completed" gorm:"default:0"`
	TotalSubmissions    int64 `json:"total_submissions" gorm:"default:0"`
	TotalRejected       int64 `json:"total_rejected" gorm:"default:0"`

	// Milestones
	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
