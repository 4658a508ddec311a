package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyaltyhub-backend/api/responses"
	"github.com/angelmondragon/loyaltyhub-backend/api/validators"
	sweepsvc "github.com/angelmondragon/loyaltyhub-backend/internal/sweepstakes"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

// SweepstakesList returns campaigns, optionally filtered by status.
func SweepstakesList(svc sweepsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sweepstakes service unavailable"))
			return
		}

		var status *enums.SweepstakesStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseSweepstakesStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}

		rows, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

func SweepstakesGet(svc sweepsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sweepstakes service unavailable"))
			return
		}

		sweepstakesID, err := pathUUID(r, "sweepstakesId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), sweepstakesID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

type enterSweepstakesRequest struct {
	EntryCount int64 `json:"entry_count" validate:"omitempty,min=1"`
}

// SweepstakesEnter adds entries for the caller, debiting points when
// the campaign charges them.
func SweepstakesEnter(svc sweepsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sweepstakes service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sweepstakesID, err := pathUUID(r, "sweepstakesId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body enterSweepstakesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Enter(r.Context(), sweepsvc.EnterParams{
			UserID:        userID,
			SweepstakesID: sweepstakesID,
			EntryCount:    body.EntryCount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// SweepstakesMyEntry returns the caller's entry record for a campaign.
func SweepstakesMyEntry(svc sweepsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sweepstakes service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sweepstakesID, err := pathUUID(r, "sweepstakesId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.UserEntry(r.Context(), sweepstakesID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if entry == nil {
			responses.WriteSuccess(w, map[string]any{"entryCount": 0})
			return
		}

		responses.WriteSuccess(w, entry)
	}
}

type prizeRequest struct {
	Name     string          `json:"name" validate:"required"`
	Value    decimal.Decimal `json:"value"`
	Quantity int             `json:"quantity" validate:"required,min=1"`
}

type createSweepstakesRequest struct {
	Name            string          `json:"name" validate:"required"`
	Description     *string         `json:"description,omitempty"`
	EntryMethod     string          `json:"entry_method" validate:"required"`
	EntryCostPoints int64           `json:"entry_cost_points" validate:"min=0"`
	EntryCostAmount decimal.Decimal `json:"entry_cost_amount"`
	Prizes          []prizeRequest  `json:"prizes" validate:"required,min=1,dive"`
	StartDate       time.Time       `json:"start_date" validate:"required"`
	EndDate         time.Time       `json:"end_date" validate:"required"`
	IsAutomatic     *bool           `json:"is_automatic,omitempty"`
}

func toPrizeList(prizes []prizeRequest) models.PrizeList {
	list := make(models.PrizeList, 0, len(prizes))
	for _, prize := range prizes {
		list = append(list, models.Prize{
			Name:     strings.TrimSpace(prize.Name),
			Value:    prize.Value,
			Quantity: prize.Quantity,
		})
	}
	return list
}

func AdminSweepstakesCreate(svc sweepsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sweepstakes service unavailable"))
			return
		}

		var body createSweepstakesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParseEntryMethod(strings.TrimSpace(body.EntryMethod))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entry method"))
			return
		}

		isAutomatic := true
		if body.IsAutomatic != nil {
			isAutomatic = *body.IsAutomatic
		}

		sweepstakes, err := svc.Create(r.Context(), sweepsvc.CreateParams{
			Name:            validators.SanitizeString(body.Name, 200),
			Description:     body.Description,
			EntryMethod:     method,
			EntryCostPoints: body.EntryCostPoints,
			EntryCostAmount: body.EntryCostAmount,
			Prizes:          toPrizeList(body.Prizes),
			StartDate:       body.StartDate,
			EndDate:         body.EndDate,
			IsAutomatic:     isAutomatic,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sweepstakes)
	}
}

type updateSweepstakesRequest struct {
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	EntryMethod     *string          `json:"entry_method,omitempty"`
	EntryCostPoints *int64           `json:"entry_cost_points,omitempty" validate:"omitempty,min=0"`
	EntryCostAmount *decimal.Decimal `json:"entry_cost_amount,omitempty"`
	Prizes          []prizeRequest   `json:"prizes,omitempty" validate:"omitempty,min=1,dive"`
	StartDate       *time.Time       `json:"start_date,omitempty"`
	EndDate         *time.Time       `json:"end_date,omitempty"`
	IsAutomatic     *bool            `json:"is_automatic,omitempty"`
}

func AdminSweepstakesUpdate(svc sweepsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sweepstakes service unavailable"))
			return
		}

		sweepstakesID, err := pathUUID(r, "sweepstakesId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateSweepstakesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := sweepsvc.UpdateParams{
			Name:            body.Name,
			Description:     body.Description,
			EntryCostPoints: body.EntryCostPoints,
			EntryCostAmount: body.EntryCostAmount,
			StartDate:       body.StartDate,
			EndDate:         body.EndDate,
			IsAutomatic:     body.IsAutomatic,
		}
		if body.EntryMethod != nil {
			method, err := enums.ParseEntryMethod(strings.TrimSpace(*body.EntryMethod))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entry method"))
				return
			}
			params.EntryMethod = &method
		}
		if body.Prizes != nil {
			params.Prizes = toPrizeList(body.Prizes)
		}

		sweepstakes, err := svc.Update(r.Context(), sweepstakesID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sweepstakes)
	}
}

// AdminSweepstakesDraw runs the weighted draw for an ended campaign.
func AdminSweepstakesDraw(svc sweepsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sweepstakes service unavailable"))
			return
		}

		sweepstakesID, err := pathUUID(r, "sweepstakesId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		winners, err := svc.SelectWinners(r.Context(), sweepstakesID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"winners": winners})
	}
}
