package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyaltyhub-backend/api/responses"
	"github.com/angelmondragon/loyaltyhub-backend/api/validators"
	rewardsvc "github.com/angelmondragon/loyaltyhub-backend/internal/rewards"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

// RewardsCatalog lists the rewards the caller's tier can redeem.
func RewardsCatalog(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rewards, err := svc.Catalog(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rewards)
	}
}

func RewardsGet(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		rewardID, err := pathUUID(r, "rewardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reward, err := svc.Get(r.Context(), rewardID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reward)
	}
}

// RewardsRedeem spends the caller's points on a reward.
func RewardsRedeem(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rewardID, err := pathUUID(r, "rewardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Redeem(r.Context(), userID, rewardID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminRewardList returns the full catalog, active or not.
func AdminRewardList(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		rewards, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rewards)
	}
}

type createRewardRequest struct {
	Name          string  `json:"name" validate:"required"`
	Description   *string `json:"description,omitempty"`
	Category      string  `json:"category" validate:"required"`
	PointsCost    int64   `json:"points_cost" validate:"min=0"`
	Value         string  `json:"value" validate:"required"`
	Tier          string  `json:"tier" validate:"required"`
	StockQuantity *int64  `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	UsageLimit    *int64  `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

func (body createRewardRequest) toCreateParams() (rewardsvc.CreateParams, error) {
	category, err := enums.ParseRewardCategory(strings.TrimSpace(body.Category))
	if err != nil {
		return rewardsvc.CreateParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	value, err := decimal.NewFromString(strings.TrimSpace(body.Value))
	if err != nil {
		return rewardsvc.CreateParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid value")
	}

	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	return rewardsvc.CreateParams{
		Name:          validators.SanitizeString(body.Name, 200),
		Description:   body.Description,
		Category:      category,
		PointsCost:    body.PointsCost,
		Value:         value,
		Tier:          strings.TrimSpace(body.Tier),
		StockQuantity: body.StockQuantity,
		UsageLimit:    body.UsageLimit,
		IsActive:      isActive,
	}, nil
}

func AdminRewardCreate(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		var body createRewardRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := body.toCreateParams()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reward, err := svc.Create(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, reward)
	}
}

type updateRewardRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	Category      *string `json:"category,omitempty"`
	PointsCost    *int64  `json:"points_cost,omitempty" validate:"omitempty,min=0"`
	Value         *string `json:"value,omitempty"`
	Tier          *string `json:"tier,omitempty"`
	StockQuantity *int64  `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	UsageLimit    *int64  `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

func (body updateRewardRequest) toUpdateParams() (rewardsvc.UpdateParams, error) {
	params := rewardsvc.UpdateParams{
		Name:          body.Name,
		Description:   body.Description,
		PointsCost:    body.PointsCost,
		Tier:          body.Tier,
		StockQuantity: body.StockQuantity,
		UsageLimit:    body.UsageLimit,
		IsActive:      body.IsActive,
	}
	if body.Category != nil {
		category, err := enums.ParseRewardCategory(strings.TrimSpace(*body.Category))
		if err != nil {
			return rewardsvc.UpdateParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		params.Category = &category
	}
	if body.Value != nil {
		value, err := decimal.NewFromString(strings.TrimSpace(*body.Value))
		if err != nil {
			return rewardsvc.UpdateParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid value")
		}
		params.Value = &value
	}
	return params, nil
}

func AdminRewardUpdate(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		rewardID, err := pathUUID(r, "rewardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateRewardRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := body.toUpdateParams()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reward, err := svc.Update(r.Context(), rewardID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reward)
	}
}
