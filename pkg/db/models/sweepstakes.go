package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
)

// Prize is one item in a sweepstakes' ordered prize list.
type Prize struct {
	Name     string          `json:"name"`
	Value    decimal.Decimal `json:"value"`
	Quantity int             `json:"quantity"`
}

// PrizeList stores the ordered prizes as a JSONB column.
type PrizeList []Prize

// Value implements driver.Valuer.
func (p PrizeList) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling prize list: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (p *PrizeList) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported prize list source type %T", value)
	}
	return json.Unmarshal(raw, p)
}

// Sweepstakes is a randomized-draw campaign. Status transitions are
// monotonic (upcoming -> active -> ended -> winners_announced) and
// never regress.
type Sweepstakes struct {
	ID              uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string                  `gorm:"column:name;not null"`
	Description     *string                 `gorm:"column:description"`
	Status          enums.SweepstakesStatus `gorm:"column:status;type:text;not null;default:'upcoming';index"`
	EntryMethod     enums.EntryMethod       `gorm:"column:entry_method;type:text;not null;default:'points'"`
	EntryCostPoints int64                   `gorm:"column:entry_cost_points;not null;default:0"`
	EntryCostAmount decimal.Decimal         `gorm:"column:entry_cost_amount;type:numeric(14,2);not null;default:0"`
	Prizes          PrizeList               `gorm:"column:prizes;type:jsonb;not null;default:'[]'"`
	StartDate       time.Time               `gorm:"column:start_date;not null"`
	EndDate         time.Time               `gorm:"column:end_date;not null"`
	IsAutomatic     bool                    `gorm:"column:is_automatic;not null;default:true"`
	WinnersDrawnAt  *time.Time              `gorm:"column:winners_drawn_at"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the uncountable noun from being re-pluralized.
func (Sweepstakes) TableName() string {
	return "sweepstakes"
}
