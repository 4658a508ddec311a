package sweepstakes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
)

// Repository exposes persistence helpers for sweepstakes, their
// per-user entry records, and drawn winners.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sweepstakes *models.Sweepstakes) error
	Update(ctx context.Context, sweepstakes *models.Sweepstakes) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sweepstakes, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Sweepstakes, error)
	GetForShare(ctx context.Context, id uuid.UUID) (*models.Sweepstakes, error)
	List(ctx context.Context, status *enums.SweepstakesStatus) ([]models.Sweepstakes, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.Sweepstakes, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.SweepstakesStatus) (bool, error)
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
	MarkWinnersDrawn(ctx context.Context, id uuid.UUID, drawnAt time.Time) error
	UpsertEntry(ctx context.Context, sweepstakesID, userID uuid.UUID, entryCount, pointsSpent int64) error
	GetEntry(ctx context.Context, sweepstakesID, userID uuid.UUID) (*models.SweepstakesEntry, error)
	ListEntries(ctx context.Context, sweepstakesID uuid.UUID) ([]models.SweepstakesEntry, error)
	CreateWinners(ctx context.Context, winners []models.SweepstakesWinner) error
	ListWinners(ctx context.Context, sweepstakesID uuid.UUID) ([]models.SweepstakesWinner, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a sweepstakes repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, sweepstakes *models.Sweepstakes) error {
	return r.db.WithContext(ctx).Create(sweepstakes).Error
}

func (r *repositoryImpl) Update(ctx context.Context, sweepstakes *models.Sweepstakes) error {
	return r.db.WithContext(ctx).Save(sweepstakes).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Sweepstakes, error) {
	var sweepstakes models.Sweepstakes
	if err := r.db.WithContext(ctx).First(&sweepstakes, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sweepstakes, nil
}

// GetForUpdate loads the sweepstakes under a row lock. The draw holds
// this lock for its full duration so no concurrent entry or second
// draw can interleave.
func (r *repositoryImpl) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Sweepstakes, error) {
	var sweepstakes models.Sweepstakes
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sweepstakes, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sweepstakes, nil
}

// GetForShare loads the sweepstakes under a shared row lock. Entries
// take this lock so they stay concurrent with each other but block
// while a draw holds the exclusive lock, and vice versa.
func (r *repositoryImpl) GetForShare(ctx context.Context, id uuid.UUID) (*models.Sweepstakes, error) {
	var sweepstakes models.Sweepstakes
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		First(&sweepstakes, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sweepstakes, nil
}

func (r *repositoryImpl) List(ctx context.Context, status *enums.SweepstakesStatus) ([]models.Sweepstakes, error) {
	query := r.db.WithContext(ctx).Model(&models.Sweepstakes{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.Sweepstakes
	err := query.Order("start_date DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListExpired(ctx context.Context, now time.Time) ([]models.Sweepstakes, error) {
	var rows []models.Sweepstakes
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", enums.SweepstakesStatusActive, now).
		Find(&rows).Error
	return rows, err
}

// TransitionStatus moves the row from one status to another. The
// status guard in the WHERE clause makes overlapping sweeps no-ops.
func (r *repositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.SweepstakesStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Sweepstakes{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumn("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ActivateDue flips every upcoming sweepstakes whose start date has
// passed. Safe to re-run; already-active rows no longer match.
func (r *repositoryImpl) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Sweepstakes{}).
		Where("status = ? AND start_date <= ?", enums.SweepstakesStatusUpcoming, now).
		UpdateColumn("status", enums.SweepstakesStatusActive)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) MarkWinnersDrawn(ctx context.Context, id uuid.UUID, drawnAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Sweepstakes{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"status":           enums.SweepstakesStatusWinnersAnnounced,
			"winners_drawn_at": drawnAt,
		}).Error
}

// UpsertEntry adds entries to a user's record, creating it on first
// entry. Counts only ever increase.
func (r *repositoryImpl) UpsertEntry(ctx context.Context, sweepstakesID, userID uuid.UUID, entryCount, pointsSpent int64) error {
	entry := models.SweepstakesEntry{
		SweepstakesID: sweepstakesID,
		UserID:        userID,
		EntryCount:    entryCount,
		PointsSpent:   pointsSpent,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sweepstakes_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"entry_count":  gorm.Expr("sweepstakes_entries.entry_count + ?", entryCount),
				"points_spent": gorm.Expr("sweepstakes_entries.points_spent + ?", pointsSpent),
				"updated_at":   gorm.Expr("NOW()"),
			}),
		}).
		Create(&entry).Error
}

func (r *repositoryImpl) GetEntry(ctx context.Context, sweepstakesID, userID uuid.UUID) (*models.SweepstakesEntry, error) {
	var entry models.SweepstakesEntry
	err := r.db.WithContext(ctx).
		First(&entry, "sweepstakes_id = ? AND user_id = ?", sweepstakesID, userID).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repositoryImpl) ListEntries(ctx context.Context, sweepstakesID uuid.UUID) ([]models.SweepstakesEntry, error) {
	var entries []models.SweepstakesEntry
	err := r.db.WithContext(ctx).
		Where("sweepstakes_id = ?", sweepstakesID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repositoryImpl) CreateWinners(ctx context.Context, winners []models.SweepstakesWinner) error {
	if len(winners) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&winners).Error
}

func (r *repositoryImpl) ListWinners(ctx context.Context, sweepstakesID uuid.UUID) ([]models.SweepstakesWinner, error) {
	var winners []models.SweepstakesWinner
	err := r.db.WithContext(ctx).
		Where("sweepstakes_id = ?", sweepstakesID).
		Order("prize_index ASC, announced_at ASC").
		Find(&winners).Error
	return winners, err
}
