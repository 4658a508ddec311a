package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/pagination"
)

// Repository exposes persistence helpers for the audit ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transaction *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	Complete(ctx context.Context, id uuid.UUID, pointsEarned int64) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, params ListParams) ([]models.Transaction, *pagination.Cursor, error)
	Recent(ctx context.Context, limit int) ([]models.Transaction, error)
	SumCompletedRevenue(ctx context.Context) (decimal.Decimal, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	RevenueByDay(ctx context.Context, from, to time.Time) ([]RevenueBucket, error)
	PointsByDay(ctx context.Context, from, to time.Time) ([]PointsBucket, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// ListParams configures a user's ledger page.
type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

// RevenueBucket is one day of settled purchase volume.
type RevenueBucket struct {
	Day    string
	Amount decimal.Decimal
	Count  int64
}

// PointsBucket is one day of points awarded through the ledger.
type PointsBucket struct {
	Day    string
	Points int64
	Count  int64
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.WithContext(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

// Complete transitions a pending transaction to completed, stamping
// the reconciled points. Already-settled rows are left untouched.
func (r *repositoryImpl) Complete(ctx context.Context, id uuid.UUID, pointsEarned int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusPending).
		UpdateColumns(map[string]any{
			"status":        enums.TransactionStatusCompleted,
			"points_earned": pointsEarned,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkFailed transitions a pending transaction to failed.
func (r *repositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusPending).
		UpdateColumn("status", enums.TransactionStatusFailed)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListByUser(ctx context.Context, params ListParams) ([]models.Transaction, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ?", params.UserID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Transaction
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) SumCompletedRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("type = ? AND status = ?", enums.TransactionTypePurchase, enums.TransactionStatusCompleted).
		Select("SUM(amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repositoryImpl) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) RevenueByDay(ctx context.Context, from, to time.Time) ([]RevenueBucket, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("type = ? AND status = ?", enums.TransactionTypePurchase, enums.TransactionStatusCompleted)
	query = boundByDate(query, from, to)

	var rows []RevenueBucket
	err := query.
		Select("to_char(created_at, 'YYYY-MM-DD') AS day, SUM(amount) AS amount, COUNT(*) AS count").
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repositoryImpl) PointsByDay(ctx context.Context, from, to time.Time) ([]PointsBucket, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("points_earned > 0")
	query = boundByDate(query, from, to)

	var rows []PointsBucket
	err := query.
		Select("to_char(created_at, 'YYYY-MM-DD') AS day, SUM(points_earned) AS points, COUNT(*) AS count").
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

// boundByDate narrows a query to the optional [from, to] window. Zero
// times leave that side open.
func boundByDate(query *gorm.DB, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at <= ?", to)
	}
	return query
}
