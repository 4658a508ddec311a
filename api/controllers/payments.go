package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyaltyhub-backend/api/responses"
	"github.com/angelmondragon/loyaltyhub-backend/api/validators"
	paymentsvc "github.com/angelmondragon/loyaltyhub-backend/internal/payments"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type purchaseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" validate:"required"`
	SourceID    string          `json:"source_id,omitempty"`
	Description string          `json:"description,omitempty"`
}

// PaymentsPurchase charges the caller through the selected rail and
// records the purchase.
func PaymentsPurchase(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body purchaseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(strings.TrimSpace(body.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Purchase(r.Context(), paymentsvc.PurchaseParams{
			UserID:      userID,
			Amount:      body.Amount,
			Method:      method,
			SourceID:    strings.TrimSpace(body.SourceID),
			Description: validators.SanitizeString(body.Description, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentsHistory pages through the caller's transaction ledger.
func PaymentsHistory(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.History(r.Context(), paymentsvc.HistoryParams{
			UserID: userID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminCompleteTransaction confirms an externally settled purchase.
func AdminCompleteTransaction(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		transactionID, err := pathUUID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		points, err := svc.CompleteTransaction(r.Context(), transactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, points)
	}
}

// AdminFailTransaction voids a pending purchase.
func AdminFailTransaction(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		transactionID, err := pathUUID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.FailTransaction(r.Context(), transactionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "failed"})
	}
}
