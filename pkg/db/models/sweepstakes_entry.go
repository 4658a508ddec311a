package models

import (
	"time"

	"github.com/google/uuid"
)

// SweepstakesEntry tracks one user's cumulative entries into one
// sweepstakes. EntryCount only ever increases.
type SweepstakesEntry struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SweepstakesID uuid.UUID `gorm:"column:sweepstakes_id;type:uuid;not null;uniqueIndex:idx_sweepstakes_entries_user"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_sweepstakes_entries_user"`
	EntryCount    int64     `gorm:"column:entry_count;not null;default:0"`
	PointsSpent   int64     `gorm:"column:points_spent;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the prefix singular.
func (SweepstakesEntry) TableName() string {
	return "sweepstakes_entries"
}
