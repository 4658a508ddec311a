package loyalty

import (
	"context"
	"errors"

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

// Service is the points engine: every loyalty balance mutation flows
// through here and leaves exactly one audit transaction behind.
type Service interface {
	EarnPoints(ctx context.Context, params EarnPointsParams) (*EarnPointsResult, error)
	AdjustPoints(ctx context.Context, params AdjustPointsParams) (*AdjustPointsResult, error)
	Summary(ctx context.Context, userID uuid.UUID) (*SummaryResult, error)
}

// TxRunner abstracts the transactional boundary so tests can run the
// callback against a fake.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the points engine dependencies.
type ServiceParams struct {
	Logger       *logger.Logger
	DB           TxRunner
	Users        users.Repository
	Transactions transactions.Repository
}

type service struct {
	logg         *logger.Logger
	db           TxRunner
	users        users.Repository
	transactions transactions.Repository
}

// NewService builds the points engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db client required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.Transactions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transactions repository required")
	}
	return &service{
		logg:         params.Logger,
		db:           params.DB,
		users:        params.Users,
		transactions: params.Transactions,
	}, nil
}

// EarnPointsParams describes one point award.
type EarnPointsParams struct {
	UserID               uuid.UUID
	Amount               decimal.Decimal
	RelatedTransactionID *uuid.UUID
}

// EarnPointsResult reports the award outcome.
type EarnPointsResult struct {
	PointsEarned int64      `json:"pointsEarned"`
	TotalPoints  int64      `json:"totalPoints"`
	Tier         enums.Tier `json:"tier"`
	TierUpgraded bool       `json:"tierUpgraded"`
}

// EarnPoints awards floor(amount x multiplier) points, where the
// multiplier comes from the tier held before this award. TotalSpent
// accumulates and the tier is recomputed from the new balance.
func (s *service) EarnPoints(ctx context.Context, params EarnPointsParams) (*EarnPointsResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	var result EarnPointsResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)

		user, err := usersRepo.GetForUpdate(ctx, params.UserID)
		if err != nil {
			return notFoundOrDependency(err, "user not found", "load user")
		}

		previousTier := user.Tier
		pointsEarned := tier.PointsFor(params.Amount, previousTier)
		newBalance := user.LoyaltyPoints + pointsEarned
		newTier := tier.For(newBalance)

		if err := usersRepo.ApplyBalance(ctx, users.ApplyBalanceParams{
			UserID:     params.UserID,
			Points:     newBalance,
			Tier:       newTier,
			SpentDelta: params.Amount,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply balance")
		}

		if params.RelatedTransactionID != nil {
			completed, err := s.transactions.WithTx(tx).Complete(ctx, *params.RelatedTransactionID, pointsEarned)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete transaction")
			}
			if !completed {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is not pending")
			}
		}

		result = EarnPointsResult{
			PointsEarned: pointsEarned,
			TotalPoints:  newBalance,
			Tier:         newTier,
			TierUpgraded: previousTier != newTier,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":       params.UserID.String(),
		"points_earned": result.PointsEarned,
		"tier":          result.Tier.String(),
	}), "loyalty.points_earned")
	return &result, nil
}

// AdjustPointsParams describes an admin balance correction.
type AdjustPointsParams struct {
	UserID uuid.UUID
	Delta  int64
	Reason string
}

// AdjustPointsResult reports the post-adjustment ledger state.
type AdjustPointsResult struct {
	AppliedDelta int64      `json:"appliedDelta"`
	TotalPoints  int64      `json:"totalPoints"`
	Tier         enums.Tier `json:"tier"`
}

// AdjustPoints applies a signed delta directly to the balance. The
// resulting balance is clamped at zero; the audit transaction records
// the delta that was actually applied.
func (s *service) AdjustPoints(ctx context.Context, params AdjustPointsParams) (*AdjustPointsResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var result AdjustPointsResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)

		user, err := usersRepo.GetForUpdate(ctx, params.UserID)
		if err != nil {
			return notFoundOrDependency(err, "user not found", "load user")
		}

		newBalance := user.LoyaltyPoints + params.Delta
		if newBalance < 0 {
			newBalance = 0
		}
		applied := newBalance - user.LoyaltyPoints
		newTier := tier.For(newBalance)

		if err := usersRepo.ApplyBalance(ctx, users.ApplyBalanceParams{
			UserID:     params.UserID,
			Points:     newBalance,
			Tier:       newTier,
			SpentDelta: decimal.Zero,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply balance")
		}

		earned := int64(0)
		spent := int64(0)
		if applied > 0 {
			earned = applied
		} else {
			spent = -applied
		}
		description := params.Reason
		audit := &models.Transaction{
			UserID:       params.UserID,
			Type:         enums.TransactionTypePointsAdjustment,
			Status:       enums.TransactionStatusCompleted,
			Amount:       decimal.Zero,
			PointsEarned: earned,
			PointsSpent:  spent,
		}
		if description != "" {
			audit.Description = &description
		}
		if err := s.transactions.WithTx(tx).Create(ctx, audit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record adjustment")
		}

		result = AdjustPointsResult{
			AppliedDelta: applied,
			TotalPoints:  newBalance,
			Tier:         newTier,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SummaryResult is the read-only loyalty snapshot for a user.
type SummaryResult struct {
	Points             int64           `json:"points"`
	Tier               enums.Tier      `json:"tier"`
	Multiplier         decimal.Decimal `json:"multiplier"`
	TotalSpent         decimal.Decimal `json:"totalSpent"`
	SweepstakesEntries int64           `json:"sweepstakesEntries"`
	NextTier           *enums.Tier     `json:"nextTier,omitempty"`
	PointsToNextTier   int64           `json:"pointsToNextTier,omitempty"`
}

// Summary reads the current loyalty state for a user.
func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*SummaryResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOrDependency(err, "user not found", "load user")
	}

	result := &SummaryResult{
		Points:             user.LoyaltyPoints,
		Tier:               user.Tier,
		Multiplier:         tier.Multiplier(user.Tier),
		TotalSpent:         user.TotalSpent,
		SweepstakesEntries: user.SweepstakesEntries,
	}
	if next, needed, ok := tier.Next(user.LoyaltyPoints); ok {
		result.NextTier = &next
		result.PointsToNextTier = needed
	}
	return result, nil
}

func notFoundOrDependency(err error, notFoundMsg, wrapMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, wrapMsg)
}
