// models/evidence.go
package models

import "time"

// EvidenceHash is the global ledger of evidence-file content hashes.
// A hash may appear at most once across the entire user base — any second
// registration attempt, by any user against any task, is duplicate evidence.
// Rows are append-only.
type EvidenceHash struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	HashValue      string `gorm:"uniqueIndex;not null;type:varchar(80)" json:"hash_value"` // hex digest ("meta:" prefix for fallback fingerprints)
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`
	TaskID         string `gorm:"index" json:"task_id"`
	SubmissionID   string `gorm:"index" json:"submission_id"`
	FileURL        string `gorm:"type:text" json:"file_url"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// DuplicateFlag records a rejected resubmission attempt for admin review.
type DuplicateFlag struct {
	ID                   string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	HashValue            string `gorm:"index;not null;type:varchar(80)" json:"hash_value"`
	AttemptedBy          string `gorm:"index;not null" json:"attempted_by"`
	TaskID               string `gorm:"index" json:"task_id"`
	FileName             string `json:"file_name"`
	OriginalSubmissionID string `json:"original_submission_id"`
	OriginalUserID       string `json:"original_user_id"`

	Reviewed   bool       `gorm:"default:false;index" json:"reviewed"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
