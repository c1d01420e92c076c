package models

// MarketplaceUser is a local mirror of users from the profile sync service.
// Populated by workers.UserSyncWorker; never the source of truth.
type MarketplaceUser struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username       string `gorm:"index" json:"username"`
	Email          string `gorm:"index" json:"email"`

	AccountStatus     string `json:"account_status" gorm:"type:varchar(32);default:'active'"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`

	Timestamps
}
