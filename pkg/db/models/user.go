package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
)

// User represents the canonical identity and loyalty ledger entity.
// Tier is derived from LoyaltyPoints via the tier policy and is never
// set directly by callers.
type User struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email              string          `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash       string          `gorm:"column:password_hash;not null"`
	FirstName          string          `gorm:"column:first_name;not null"`
	LastName           string          `gorm:"column:last_name;not null"`
	Role               enums.UserRole  `gorm:"column:role;type:text;not null;default:'customer'"`
	LoyaltyPoints      int64           `gorm:"column:loyalty_points;not null;default:0"`
	Tier               enums.Tier      `gorm:"column:tier;type:text;not null;default:'bronze'"`
	TotalSpent         decimal.Decimal `gorm:"column:total_spent;type:numeric(14,2);not null;default:0"`
	SweepstakesEntries int64           `gorm:"column:sweepstakes_entries;not null;default:0"`
	IsActive           bool            `gorm:"column:is_active;not null;default:true"`
	LastLoginAt        *time.Time      `gorm:"column:last_login_at"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
