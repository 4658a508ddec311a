package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
)

// Reward is a catalog item redeemable for points. Tier holds a specific
// tier name or "all". StockQuantity nil means unlimited stock; when
// present it is decremented on redemption and the reward deactivates
// at zero.
type Reward struct {
	ID            uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string               `gorm:"column:name;not null"`
	Description   *string              `gorm:"column:description"`
	Category      enums.RewardCategory `gorm:"column:category;type:text;not null"`
	PointsCost    int64                `gorm:"column:points_cost;not null"`
	Value         decimal.Decimal      `gorm:"column:value;type:numeric(14,2);not null;default:0"`
	Tier          string               `gorm:"column:tier;type:text;not null;default:'all'"`
	StockQuantity *int64               `gorm:"column:stock_quantity"`
	UsageLimit    *int64               `gorm:"column:usage_limit"`
	IsActive      bool                 `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
