package rewards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
)

// Repository exposes persistence helpers for the reward catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, reward *models.Reward) error
	Update(ctx context.Context, reward *models.Reward) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reward, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reward, error)
	ListCatalog(ctx context.Context, tier enums.Tier) ([]models.Reward, error)
	ListAll(ctx context.Context) ([]models.Reward, error)
	DecrementStock(ctx context.Context, id uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a rewards repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *repositoryImpl) Update(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Save(reward).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Reward, error) {
	var reward models.Reward
	if err := r.db.WithContext(ctx).First(&reward, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

// GetForUpdate loads the reward under a row lock so the stock check
// and decrement in the same transaction are race-safe.
func (r *repositoryImpl) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reward, error) {
	var reward models.Reward
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reward, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

// ListCatalog returns active rewards redeemable by the given tier,
// cheapest first.
func (r *repositoryImpl) ListCatalog(ctx context.Context, tier enums.Tier) ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("tier IN ?", []string{enums.RewardTierAll, tier.String()}).
		Order("points_cost ASC").
		Find(&rewards).Error
	return rewards, err
}

func (r *repositoryImpl) ListAll(ctx context.Context) ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rewards).Error
	return rewards, err
}

// DecrementStock consumes one stock unit and deactivates the reward
// when the last unit goes. The stock > 0 guard keeps concurrent
// redemptions from overselling.
func (r *repositoryImpl) DecrementStock(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("id = ? AND stock_quantity > 0", id).
		UpdateColumns(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - 1"),
			"is_active":      gorm.Expr("CASE WHEN stock_quantity - 1 <= 0 THEN false ELSE is_active END"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
