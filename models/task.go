// models/task.go
package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const (
	CategoryContentCreation = "content_creation"
	CategorySocialMedia     = "social_media"
	CategorySurvey          = "survey"
	CategoryAppTesting      = "app_testing"
	CategoryResearch        = "research"
	CategoryOther           = "other"
)

type Task struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex"`
	Description string `json:"description"`

	// Reward configuration — consumed by the points calculator
	Category      string `json:"category" gorm:"index"`
	Difficulty    string `json:"difficulty" gorm:"type:varchar(16);default:'medium'"`
	BasePoints    int    `json:"base_points" gorm:"not null"`
	TaskType      string `json:"task_type" gorm:"index"` // key into the auto-approval rule table
	EstimatedTime string `json:"estimated_time"`         // human estimate, e.g. "30 minutes", "1-2 hours"

	// Evidence requirements
	RequiresEvidenceText bool `json:"requires_evidence_text" gorm:"default:true"`
	RequiresEvidenceFile bool `json:"requires_evidence_file" gorm:"default:false"`

	// Capacity
	MaxSubmissions int `json:"max_submissions" gorm:"default:0"` // 0 = unlimited

	// Publishing state
	Status    string     `json:"status" gorm:"default:'draft'"` // draft | scheduled | published | archived
	PublishAt *time.Time `json:"publish_at"`                    // only used if scheduled
	Deadline  *time.Time `json:"deadline,omitempty"`

	CreatedBy string `json:"created_by" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
