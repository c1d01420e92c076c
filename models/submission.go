// models/submission.go
package models

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// Submission is a user's claim of task completion plus its evidence.
type Submission struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TaskID         string `gorm:"index;not null" json:"task_id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`

	// Evidence
	EvidenceText     string `json:"evidence_text" gorm:"type:text"`
	EvidenceFileURLs string `json:"evidence_file_urls" gorm:"type:jsonb"` // JSON array of public URLs
	TimeSpentMinutes *int   `json:"time_spent_minutes,omitempty"`

	// Review state
	Status       SubmissionStatus `json:"status" gorm:"type:varchar(16);default:'pending';index"`
	QualityScore *int             `json:"quality_score,omitempty"` // 0–100, reviewer- or gate-assigned
	AutoApproved bool             `json:"auto_approved" gorm:"default:false"`
	ReviewedBy   string           `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time       `json:"reviewed_at,omitempty"`
	RejectReason string           `json:"reject_reason,omitempty"`

	// Award (denormalized at approval time to avoid recomputation)
	CalculatedPoints int    `json:"calculated_points" gorm:"default:0"`
	PointBreakdown   string `json:"point_breakdown,omitempty" gorm:"type:jsonb"`
	PointExplanation string `json:"point_explanation,omitempty" gorm:"type:jsonb"`

	// Fraud signals captured at intake
	DeviceFingerprint string `json:"-" gorm:"index"`
	IPAddress         string `json:"-"`

	SubmittedAt time.Time `json:"submitted_at" gorm:"index"`

	Timestamps
}
