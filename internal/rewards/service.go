package rewards

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

// Service covers reward catalog reads, admin catalog management, and
// the consumer-facing redemption flow.
type Service interface {
	Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*RedeemResult, error)
	Catalog(ctx context.Context, userID uuid.UUID) ([]models.Reward, error)
	ListAll(ctx context.Context) ([]models.Reward, error)
	Get(ctx context.Context, rewardID uuid.UUID) (*models.Reward, error)
	Create(ctx context.Context, params CreateParams) (*models.Reward, error)
	Update(ctx context.Context, rewardID uuid.UUID, params UpdateParams) (*models.Reward, error)
}

// TxRunner abstracts the transactional boundary.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the redemption dependencies.
type ServiceParams struct {
	Logger       *logger.Logger
	DB           TxRunner
	Rewards      Repository
	Users        users.Repository
	Transactions transactions.Repository
}

type service struct {
	logg         *logger.Logger
	db           TxRunner
	rewards      Repository
	users        users.Repository
	transactions transactions.Repository
}

// NewService builds the rewards service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db client required")
	}
	if params.Rewards == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "rewards repository required")
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
		rewards:      params.Rewards,
		users:        params.Users,
		transactions: params.Transactions,
	}, nil
}

// RedeemResult reports a successful redemption.
type RedeemResult struct {
	Reward          models.Reward      `json:"reward"`
	RemainingPoints int64              `json:"remainingPoints"`
	Transaction     models.Transaction `json:"transaction"`
}

// Redeem debits the reward's point cost, records the redemption, and
// consumes stock, all inside one transaction. Check order: user, then
// reward existence/availability, then balance, then tier.
func (s *service) Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*RedeemResult, error) {
	if userID == uuid.Nil || rewardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and reward id required")
	}

	var result RedeemResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)
		rewardsRepo := s.rewards.WithTx(tx)

		user, err := usersRepo.GetForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		reward, err := rewardsRepo.GetForUpdate(ctx, rewardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reward")
		}
		if !reward.IsActive {
			return pkgerrors.New(pkgerrors.CodeUnavailable, "reward is not available")
		}
		if reward.StockQuantity != nil && *reward.StockQuantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeUnavailable, "reward is out of stock")
		}

		if user.LoyaltyPoints < reward.PointsCost {
			return pkgerrors.New(pkgerrors.CodeInsufficientPoints, "insufficient points").
				WithDetails(map[string]any{
					"required":  reward.PointsCost,
					"available": user.LoyaltyPoints,
				})
		}
		if reward.Tier != enums.RewardTierAll && reward.Tier != user.Tier.String() {
			return pkgerrors.New(pkgerrors.CodeTierMismatch, "tier requirement not met").
				WithDetails(map[string]any{
					"required": reward.Tier,
					"current":  user.Tier.String(),
				})
		}

		debited, err := usersRepo.DebitPoints(ctx, userID, reward.PointsCost)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit points")
		}
		if !debited {
			return pkgerrors.New(pkgerrors.CodeInsufficientPoints, "insufficient points")
		}

		remaining := user.LoyaltyPoints - reward.PointsCost
		if err := usersRepo.UpdateTier(ctx, userID, tier.For(remaining)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tier")
		}

		redemption := models.Transaction{
			UserID:      userID,
			Type:        enums.TransactionTypeRewardRedemption,
			Status:      enums.TransactionStatusCompleted,
			Amount:      reward.Value,
			PointsSpent: reward.PointsCost,
			RewardID:    &reward.ID,
		}
		if err := s.transactions.WithTx(tx).Create(ctx, &redemption); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record redemption")
		}

		if reward.StockQuantity != nil {
			consumed, err := rewardsRepo.DecrementStock(ctx, rewardID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !consumed {
				return pkgerrors.New(pkgerrors.CodeUnavailable, "reward is out of stock")
			}
			remainingStock := *reward.StockQuantity - 1
			reward.StockQuantity = &remainingStock
			if remainingStock <= 0 {
				reward.IsActive = false
			}
		}

		result = RedeemResult{
			Reward:          *reward,
			RemainingPoints: remaining,
			Transaction:     redemption,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":      userID.String(),
		"reward_id":    rewardID.String(),
		"points_spent": result.Transaction.PointsSpent,
	}), "rewards.redeemed")
	return &result, nil
}

// Catalog lists active rewards the user's tier can redeem.
func (s *service) Catalog(ctx context.Context, userID uuid.UUID) ([]models.Reward, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	rewards, err := s.rewards.ListCatalog(ctx, user.Tier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	return rewards, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Reward, error) {
	rewards, err := s.rewards.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rewards")
	}
	return rewards, nil
}

func (s *service) Get(ctx context.Context, rewardID uuid.UUID) (*models.Reward, error) {
	reward, err := s.rewards.GetByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reward")
	}
	return reward, nil
}

// CreateParams carries an admin catalog insert.
type CreateParams struct {
	Name          string
	Description   *string
	Category      enums.RewardCategory
	PointsCost    int64
	Value         decimal.Decimal
	Tier          string
	StockQuantity *int64
	UsageLimit    *int64
	IsActive      bool
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Reward, error) {
	if params.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward name required")
	}
	if !params.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reward category")
	}
	if params.PointsCost < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points cost must not be negative")
	}
	if err := validateRewardTier(params.Tier); err != nil {
		return nil, err
	}

	reward := models.Reward{
		Name:          params.Name,
		Description:   params.Description,
		Category:      params.Category,
		PointsCost:    params.PointsCost,
		Value:         params.Value,
		Tier:          params.Tier,
		StockQuantity: params.StockQuantity,
		UsageLimit:    params.UsageLimit,
		IsActive:      params.IsActive,
	}
	if err := s.rewards.Create(ctx, &reward); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reward")
	}
	return &reward, nil
}

// UpdateParams carries an admin catalog patch; nil fields are left
// untouched.
type UpdateParams struct {
	Name          *string
	Description   *string
	Category      *enums.RewardCategory
	PointsCost    *int64
	Value         *decimal.Decimal
	Tier          *string
	StockQuantity *int64
	UsageLimit    *int64
	IsActive      *bool
}

func (s *service) Update(ctx context.Context, rewardID uuid.UUID, params UpdateParams) (*models.Reward, error) {
	reward, err := s.rewards.GetByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reward")
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward name required")
		}
		reward.Name = *params.Name
	}
	if params.Description != nil {
		reward.Description = params.Description
	}
	if params.Category != nil {
		if !params.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reward category")
		}
		reward.Category = *params.Category
	}
	if params.PointsCost != nil {
		if *params.PointsCost < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "points cost must not be negative")
		}
		reward.PointsCost = *params.PointsCost
	}
	if params.Value != nil {
		reward.Value = *params.Value
	}
	if params.Tier != nil {
		if err := validateRewardTier(*params.Tier); err != nil {
			return nil, err
		}
		reward.Tier = *params.Tier
	}
	if params.StockQuantity != nil {
		reward.StockQuantity = params.StockQuantity
	}
	if params.UsageLimit != nil {
		reward.UsageLimit = params.UsageLimit
	}
	if params.IsActive != nil {
		reward.IsActive = *params.IsActive
	}

	if err := s.rewards.Update(ctx, reward); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reward")
	}
	return reward, nil
}

func validateRewardTier(value string) error {
	if value == enums.RewardTierAll {
		return nil
	}
	if _, err := enums.ParseTier(value); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid reward tier")
	}
	return nil
}
