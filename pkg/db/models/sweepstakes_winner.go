package models

import (
	"time"

	"github.com/google/uuid"
)

// SweepstakesWinner records one drawn prize unit. Rows for a
// sweepstakes are written exactly once, at the draw.
type SweepstakesWinner struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SweepstakesID uuid.UUID `gorm:"column:sweepstakes_id;type:uuid;not null;index"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	PrizeName     string    `gorm:"column:prize_name;not null"`
	PrizeIndex    int       `gorm:"column:prize_index;not null"`
	AnnouncedAt   time.Time `gorm:"column:announced_at;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the prefix singular.
func (SweepstakesWinner) TableName() string {
	return "sweepstakes_winners"
}
