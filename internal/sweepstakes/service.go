package sweepstakes

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyaltyhub-backend/internal/tier"
	"github.com/angelmondragon/loyaltyhub-backend/internal/transactions"
	"github.com/angelmondragon/loyaltyhub-backend/internal/users"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

// Service covers sweepstakes entry bookkeeping, the weighted winner
// draw, and campaign management.
type Service interface {
	Enter(ctx context.Context, params EnterParams) (*EnterResult, error)
	SelectWinners(ctx context.Context, sweepstakesID uuid.UUID) ([]models.SweepstakesWinner, error)
	List(ctx context.Context, status *enums.SweepstakesStatus) ([]models.Sweepstakes, error)
	Get(ctx context.Context, sweepstakesID uuid.UUID) (*DetailResult, error)
	UserEntry(ctx context.Context, sweepstakesID, userID uuid.UUID) (*models.SweepstakesEntry, error)
	Create(ctx context.Context, params CreateParams) (*models.Sweepstakes, error)
	Update(ctx context.Context, sweepstakesID uuid.UUID, params UpdateParams) (*models.Sweepstakes, error)
}

// TxRunner abstracts the transactional boundary.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the sweepstakes dependencies. Rand may be nil;
// a time-seeded source is used then.
type ServiceParams struct {
	Logger       *logger.Logger
	DB           TxRunner
	Sweepstakes  Repository
	Users        users.Repository
	Transactions transactions.Repository
	MaxEntries   int
	Rand         *rand.Rand
	Now          func() time.Time
}

type service struct {
	logg         *logger.Logger
	db           TxRunner
	sweepstakes  Repository
	users        users.Repository
	transactions transactions.Repository
	maxEntries   int64
	rng          *rand.Rand
	now          func() time.Time
}

const defaultMaxEntries = 100

// NewService builds the sweepstakes service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db client required")
	}
	if params.Sweepstakes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sweepstakes repository required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.Transactions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transactions repository required")
	}
	maxEntries := int64(params.MaxEntries)
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		logg:         params.Logger,
		db:           params.DB,
		sweepstakes:  params.Sweepstakes,
		users:        params.Users,
		transactions: params.Transactions,
		maxEntries:   maxEntries,
		rng:          rng,
		now:          now,
	}, nil
}

// EnterParams describes one entry request.
type EnterParams struct {
	UserID        uuid.UUID
	SweepstakesID uuid.UUID
	EntryCount    int64
}

// EnterResult reports the entry outcome.
type EnterResult struct {
	EntriesAdded        int64 `json:"entriesAdded"`
	TotalEntriesForUser int64 `json:"totalEntriesForUser"`
	RemainingPoints     int64 `json:"remainingPoints"`
}

// Enter adds entry units for the user, debiting points when the entry
// method charges them. All writes share one transaction.
func (s *service) Enter(ctx context.Context, params EnterParams) (*EnterResult, error) {
	if params.UserID == uuid.Nil || params.SweepstakesID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and sweepstakes id required")
	}
	if params.EntryCount <= 0 {
		params.EntryCount = 1
	}
	if params.EntryCount > s.maxEntries {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry count exceeds the per-request cap").
			WithDetails(map[string]any{"max": s.maxEntries})
	}

	var result EnterResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)
		sweepsRepo := s.sweepstakes.WithTx(tx)

		user, err := usersRepo.GetForUpdate(ctx, params.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		// Shared lock on the sweepstakes row so the entry cannot commit
		// while a draw holds the exclusive lock on the same row.
		sweepstakes, err := sweepsRepo.GetForShare(ctx, params.SweepstakesID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sweepstakes not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sweepstakes")
		}
		if sweepstakes.Status != enums.SweepstakesStatusActive {
			return pkgerrors.New(pkgerrors.CodeNotActive, "sweepstakes is not active")
		}

		pointsCost := int64(0)
		if sweepstakes.EntryMethod.CostsPoints() {
			pointsCost = sweepstakes.EntryCostPoints * params.EntryCount
		}
		remaining := user.LoyaltyPoints
		if pointsCost > 0 {
			if user.LoyaltyPoints < pointsCost {
				return pkgerrors.New(pkgerrors.CodeInsufficientPoints, "insufficient points").
					WithDetails(map[string]any{
						"required":  pointsCost,
						"available": user.LoyaltyPoints,
					})
			}
			debited, err := usersRepo.DebitPoints(ctx, params.UserID, pointsCost)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit points")
			}
			if !debited {
				return pkgerrors.New(pkgerrors.CodeInsufficientPoints, "insufficient points")
			}
			remaining = user.LoyaltyPoints - pointsCost
			if err := usersRepo.UpdateTier(ctx, params.UserID, tier.For(remaining)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tier")
			}
		}

		if err := sweepsRepo.UpsertEntry(ctx, params.SweepstakesID, params.UserID, params.EntryCount, pointsCost); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record entry")
		}
		if err := usersRepo.IncrementSweepstakesEntries(ctx, params.UserID, params.EntryCount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update lifetime entries")
		}

		if pointsCost > 0 {
			amount := sweepstakes.EntryCostAmount.Mul(decimal.NewFromInt(params.EntryCount))
			entryTx := models.Transaction{
				UserID:        params.UserID,
				Type:          enums.TransactionTypeSweepstakesEntry,
				Status:        enums.TransactionStatusCompleted,
				Amount:        amount,
				PointsSpent:   pointsCost,
				SweepstakesID: &sweepstakes.ID,
			}
			if err := s.transactions.WithTx(tx).Create(ctx, &entryTx); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record entry transaction")
			}
		}

		entry, err := sweepsRepo.GetEntry(ctx, params.SweepstakesID, params.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entry")
		}

		result = EnterResult{
			EntriesAdded:        params.EntryCount,
			TotalEntriesForUser: entry.EntryCount,
			RemainingPoints:     remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":        params.UserID.String(),
		"sweepstakes_id": params.SweepstakesID.String(),
		"entries_added":  result.EntriesAdded,
	}), "sweepstakes.entered")
	return &result, nil
}

// poolUnit is one indivisible chance in the draw pool.
type poolUnit struct {
	userID uuid.UUID
}

// SelectWinners runs the weighted draw: each entry unit is one chance,
// each draw removes only the drawn unit, so a user with multiple
// entries can win more than one prize. Prizes are drawn in declared
// order and the draw stops early when the pool empties. The transition
// to winners_announced is terminal.
func (s *service) SelectWinners(ctx context.Context, sweepstakesID uuid.UUID) ([]models.SweepstakesWinner, error) {
	if sweepstakesID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sweepstakes id required")
	}

	var winners []models.SweepstakesWinner
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		sweepsRepo := s.sweepstakes.WithTx(tx)

		sweepstakes, err := sweepsRepo.GetForUpdate(ctx, sweepstakesID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sweepstakes not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sweepstakes")
		}
		if sweepstakes.Status == enums.SweepstakesStatusWinnersAnnounced {
			return pkgerrors.New(pkgerrors.CodeAlreadyAnnounced, "winners already announced")
		}

		entries, err := sweepsRepo.ListEntries(ctx, sweepstakesID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list entries")
		}

		pool := make([]poolUnit, 0)
		for _, entry := range entries {
			for i := int64(0); i < entry.EntryCount; i++ {
				pool = append(pool, poolUnit{userID: entry.UserID})
			}
		}

		announcedAt := s.now().UTC()
		winners = winners[:0]
		for prizeIndex, prize := range sweepstakes.Prizes {
			for q := 0; q < prize.Quantity; q++ {
				if len(pool) == 0 {
					break
				}
				pick := s.rng.Intn(len(pool))
				unit := pool[pick]
				pool[pick] = pool[len(pool)-1]
				pool = pool[:len(pool)-1]
				winners = append(winners, models.SweepstakesWinner{
					SweepstakesID: sweepstakesID,
					UserID:        unit.userID,
					PrizeName:     prize.Name,
					PrizeIndex:    prizeIndex,
					AnnouncedAt:   announcedAt,
				})
			}
		}

		if err := sweepsRepo.CreateWinners(ctx, winners); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store winners")
		}
		if err := sweepsRepo.MarkWinnersDrawn(ctx, sweepstakesID, announcedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark winners drawn")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"sweepstakes_id": sweepstakesID.String(),
		"winner_count":   len(winners),
	}), "sweepstakes.winners_announced")
	return winners, nil
}

func (s *service) List(ctx context.Context, status *enums.SweepstakesStatus) ([]models.Sweepstakes, error) {
	rows, err := s.sweepstakes.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sweepstakes")
	}
	return rows, nil
}

// DetailResult is the sweepstakes detail view; winners are present
// once drawn.
type DetailResult struct {
	Sweepstakes models.Sweepstakes         `json:"sweepstakes"`
	Winners     []models.SweepstakesWinner `json:"winners,omitempty"`
}

func (s *service) Get(ctx context.Context, sweepstakesID uuid.UUID) (*DetailResult, error) {
	sweepstakes, err := s.sweepstakes.GetByID(ctx, sweepstakesID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sweepstakes not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sweepstakes")
	}
	detail := &DetailResult{Sweepstakes: *sweepstakes}
	if sweepstakes.Status == enums.SweepstakesStatusWinnersAnnounced {
		winners, err := s.sweepstakes.ListWinners(ctx, sweepstakesID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list winners")
		}
		detail.Winners = winners
	}
	return detail, nil
}

// UserEntry returns the caller's entry record, nil when they have not
// entered.
func (s *service) UserEntry(ctx context.Context, sweepstakesID, userID uuid.UUID) (*models.SweepstakesEntry, error) {
	entry, err := s.sweepstakes.GetEntry(ctx, sweepstakesID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entry")
	}
	return entry, nil
}

// CreateParams carries an admin campaign insert. Status derives from
// the dates.
type CreateParams struct {
	Name            string
	Description     *string
	EntryMethod     enums.EntryMethod
	EntryCostPoints int64
	EntryCostAmount decimal.Decimal
	Prizes          models.PrizeList
	StartDate       time.Time
	EndDate         time.Time
	IsAutomatic     bool
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Sweepstakes, error) {
	if params.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sweepstakes name required")
	}
	if !params.EntryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid entry method")
	}
	if params.EntryCostPoints < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry cost must not be negative")
	}
	if len(params.Prizes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one prize required")
	}
	if !params.EndDate.After(params.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}

	now := s.now().UTC()
	status := enums.SweepstakesStatusUpcoming
	switch {
	case now.After(params.EndDate):
		status = enums.SweepstakesStatusEnded
	case !now.Before(params.StartDate):
		status = enums.SweepstakesStatusActive
	}

	sweepstakes := models.Sweepstakes{
		Name:            params.Name,
		Description:     params.Description,
		Status:          status,
		EntryMethod:     params.EntryMethod,
		EntryCostPoints: params.EntryCostPoints,
		EntryCostAmount: params.EntryCostAmount,
		Prizes:          params.Prizes,
		StartDate:       params.StartDate,
		EndDate:         params.EndDate,
		IsAutomatic:     params.IsAutomatic,
	}
	if err := s.sweepstakes.Create(ctx, &sweepstakes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sweepstakes")
	}
	return &sweepstakes, nil
}

// UpdateParams carries an admin campaign patch; nil fields are left
// untouched. Status is never patched directly.
type UpdateParams struct {
	Name            *string
	Description     *string
	EntryMethod     *enums.EntryMethod
	EntryCostPoints *int64
	EntryCostAmount *decimal.Decimal
	Prizes          models.PrizeList
	StartDate       *time.Time
	EndDate         *time.Time
	IsAutomatic     *bool
}

func (s *service) Update(ctx context.Context, sweepstakesID uuid.UUID, params UpdateParams) (*models.Sweepstakes, error) {
	sweepstakes, err := s.sweepstakes.GetByID(ctx, sweepstakesID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sweepstakes not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sweepstakes")
	}
	if sweepstakes.Status == enums.SweepstakesStatusWinnersAnnounced {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sweepstakes is finalized")
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sweepstakes name required")
		}
		sweepstakes.Name = *params.Name
	}
	if params.Description != nil {
		sweepstakes.Description = params.Description
	}
	if params.EntryMethod != nil {
		if !params.EntryMethod.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid entry method")
		}
		sweepstakes.EntryMethod = *params.EntryMethod
	}
	if params.EntryCostPoints != nil {
		if *params.EntryCostPoints < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry cost must not be negative")
		}
		sweepstakes.EntryCostPoints = *params.EntryCostPoints
	}
	if params.EntryCostAmount != nil {
		sweepstakes.EntryCostAmount = *params.EntryCostAmount
	}
	if params.Prizes != nil {
		sweepstakes.Prizes = params.Prizes
	}
	if params.StartDate != nil {
		sweepstakes.StartDate = *params.StartDate
	}
	if params.EndDate != nil {
		sweepstakes.EndDate = *params.EndDate
	}
	if !sweepstakes.EndDate.After(sweepstakes.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if params.IsAutomatic != nil {
		sweepstakes.IsAutomatic = *params.IsAutomatic
	}

	if err := s.sweepstakes.Update(ctx, sweepstakes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sweepstakes")
	}
	return sweepstakes, nil
}
