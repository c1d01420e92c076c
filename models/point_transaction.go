package models

import "time"

const (
	PointReasonSubmissionApproved = "submission_approved"
	PointReasonAutoApproved       = "auto_approved"
	PointReasonAdminGrant         = "admin_grant"
)

// PointTransaction is the append-only audit trail of every point award.
// Rows are never mutated or deleted.
type PointTransaction struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`
	TaskID         string `gorm:"index" json:"task_id,omitempty"`
	SubmissionID   string `gorm:"index" json:"submission_id,omitempty"`

	Points      int    `json:"points"`
	Reason      string `json:"reason" gorm:"type:varchar(64)"`
	Breakdown   string `json:"breakdown,omitempty" gorm:"type:jsonb"`
	Explanation string `json:"explanation,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}
