// models/badge.go
package models

import (
	"time"
)

// BadgeType: static config (loaded from DB or JSON)
type BadgeType struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code        string `gorm:"uniqueIndex;not null"` // e.g., "FIRST_TASK", "STREAK_10"
	Name        string `gorm:"not null"`
	Description string
	IconURL     string           `gorm:"type:text"`
	Rarity      string           `gorm:"type:varchar(16);default:'common'"` // common, rare, epic, legendary
	Threshold   map[string]int64 `gorm:"type:jsonb;serializer:json"`        // e.g., {"total_tasks_completed": 10}
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
}

// UserBadge: awarded instance (many-to-many)
type UserBadge struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ExternalUserID string    `gorm:"index;not null"`
	BadgeTypeID    string    `gorm:"index;not null"`
	AwardedAt      time.Time `gorm:"autoCreateTime"`
	Metadata       string    `gorm:"type:jsonb"` // e.g., {"task_id": "...", "points": 144}
}

// Predefined badge triggers
var BadgeTriggers = []BadgeType{
	{
		Code:        "WELCOME",
		Name:        "Welcome Aboard!",
		Description: "Joined the marketplace",
		Rarity:      "common",
		Threshold:   map[string]int64{"event": 1}, // awarded on signup
	},
	{
		Code:        "FIRST_TASK",
		Name:        "Getting Started",
		Description: "First approved task",
		Rarity:      "common",
		Threshold:   map[string]int64{"total_tasks_completed": 1},
	},
	{
		Code:        "TASKS_10",
		Name:        "Regular",
		Description: "10 approved tasks",
		Rarity:      "common",
		Threshold:   map[string]int64{"total_tasks_completed": 10},
	},
	{
		Code:        "TASKS_100",
		Name:        "Workhorse",
		Description: "100 approved tasks",
		Rarity:      "rare",
		Threshold:   map[string]int64{"total_tasks_completed": 100},
	},
	{
		Code:        "POINTS_1000",
		Name:        "Point Collector",
		Description: "Earned 1,000 lifetime points",
		Rarity:      "rare",
		Threshold:   map[string]int64{"total_points": 1000},
	},
	{
		Code:        "LEVEL_10",
		Name:        "Veteran",
		Description: "Reached Level 10",
		Rarity:      "epic",
		Threshold:   map[string]int64{"level": 10},
	},
}
