package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/loyaltyhub-backend/api/middleware"
	"github.com/angelmondragon/loyaltyhub-backend/api/responses"
	"github.com/angelmondragon/loyaltyhub-backend/api/validators"
	"github.com/angelmondragon/loyaltyhub-backend/internal/loyalty"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

// LoyaltySummary returns the caller's points, tier, and progress.
func LoyaltySummary(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

type adjustPointsRequest struct {
	Delta  int64  `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// AdminAdjustPoints applies a signed correction to a user's balance.
func AdminAdjustPoints(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adjustPointsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdjustPoints(r.Context(), loyalty.AdjustPointsParams{
			UserID: userID,
			Delta:  body.Delta,
			Reason: validators.SanitizeString(body.Reason, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").
			WithDetails(map[string]any{"param": param})
	}
	return id, nil
}
