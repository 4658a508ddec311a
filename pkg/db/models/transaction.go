package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
)

// Transaction is the append-only audit record for every point-balance
// mutation. Rows are never edited after insert except for the
// pending -> completed/failed status transition driven by payment
// confirmation.
type Transaction struct {
	ID            uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Type          enums.TransactionType   `gorm:"column:type;type:text;not null"`
	Status        enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Amount        decimal.Decimal         `gorm:"column:amount;type:numeric(14,2);not null;default:0"`
	PointsEarned  int64                   `gorm:"column:points_earned;not null;default:0"`
	PointsSpent   int64                   `gorm:"column:points_spent;not null;default:0"`
	PaymentMethod *enums.PaymentMethod    `gorm:"column:payment_method;type:text"`
	ProcessorRef  *string                 `gorm:"column:processor_ref"`
	RewardID      *uuid.UUID              `gorm:"column:reward_id;type:uuid"`
	SweepstakesID *uuid.UUID              `gorm:"column:sweepstakes_id;type:uuid"`
	Description   *string                 `gorm:"column:description"`
	Metadata      json.RawMessage         `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
