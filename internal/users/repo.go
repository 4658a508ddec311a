package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
)

// Repository exposes persistence helpers for users and the loyalty
// balance they carry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, params ListParams) ([]models.User, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	ApplyBalance(ctx context.Context, params ApplyBalanceParams) error
	DebitPoints(ctx context.Context, id uuid.UUID, points int64) (bool, error)
	GetBalance(ctx context.Context, id uuid.UUID) (int64, error)
	UpdateTier(ctx context.Context, id uuid.UUID, tier enums.Tier) error
	IncrementSweepstakesEntries(ctx context.Context, id uuid.UUID, count int64) error
	CountByRole(ctx context.Context, role enums.UserRole) (int64, error)
	TierDistribution(ctx context.Context) (map[enums.Tier]int64, error)
	SumLoyaltyPoints(ctx context.Context) (int64, error)
	SignupsByDay(ctx context.Context, from, to time.Time) ([]SignupBucket, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a users repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// ApplyBalanceParams carries one absolute balance write. Callers must
// hold the user row lock (GetForUpdate) for the duration of the
// read-modify-write.
type ApplyBalanceParams struct {
	UserID     uuid.UUID
	Points     int64
	Tier       enums.Tier
	SpentDelta decimal.Decimal
}

// ListParams filters and pages the account listing. Search matches
// email, first name, and last name case-insensitively.
type ListParams struct {
	Tier   *enums.Tier
	Search string
	Limit  int
	Offset int
}

// SignupBucket is one day of new registrations.
type SignupBucket struct {
	Day   string
	Count int64
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repositoryImpl) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *repositoryImpl) List(ctx context.Context, params ListParams) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if params.Tier != nil {
		query = query.Where("tier = ?", *params.Tier)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.User
	err := query.
		Order("created_at DESC, id DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetForUpdate loads the user under a row lock so the subsequent
// balance write in the same transaction is race-safe.
func (r *repositoryImpl) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", gorm.Expr("NOW()")).Error
}

// ApplyBalance writes the new balance and tier, accumulating spend.
func (r *repositoryImpl) ApplyBalance(ctx context.Context, params ApplyBalanceParams) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", params.UserID).
		UpdateColumns(map[string]any{
			"loyalty_points": params.Points,
			"tier":           params.Tier,
			"total_spent":    gorm.Expr("total_spent + ?", params.SpentDelta),
		}).Error
}

// DebitPoints subtracts points only when the balance can afford it.
// The conditional WHERE guard makes concurrent debits race-safe:
// of two competing debits against a balance that can fund only one,
// exactly one matches a row.
func (r *repositoryImpl) DebitPoints(ctx context.Context, id uuid.UUID, points int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND loyalty_points >= ?", id, points).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points - ?", points))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) GetBalance(ctx context.Context, id uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Select("loyalty_points").
		Scan(&balance).Error
	return balance, err
}

func (r *repositoryImpl) UpdateTier(ctx context.Context, id uuid.UUID, tier enums.Tier) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("tier", tier).Error
}

func (r *repositoryImpl) IncrementSweepstakesEntries(ctx context.Context, id uuid.UUID, count int64) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("sweepstakes_entries", gorm.Expr("sweepstakes_entries + ?", count)).Error
}

func (r *repositoryImpl) CountByRole(ctx context.Context, role enums.UserRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) TierDistribution(ctx context.Context) (map[enums.Tier]int64, error) {
	type row struct {
		Tier  enums.Tier
		Total int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("tier, COUNT(*) AS total").
		Group("tier").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	distribution := make(map[enums.Tier]int64, len(rows))
	for _, entry := range rows {
		distribution[entry.Tier] = entry.Total
	}
	return distribution, nil
}

func (r *repositoryImpl) SumLoyaltyPoints(ctx context.Context) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("SUM(loyalty_points)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repositoryImpl) SignupsByDay(ctx context.Context, from, to time.Time) ([]SignupBucket, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at <= ?", to)
	}
	var rows []SignupBucket
	err := query.
		Select("to_char(created_at, 'YYYY-MM-DD') AS day, COUNT(*) AS count").
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}
