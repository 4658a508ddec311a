package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/loyaltyhub-backend/api/responses"
	"github.com/angelmondragon/loyaltyhub-backend/api/validators"
	adminsvc "github.com/angelmondragon/loyaltyhub-backend/internal/admin"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

const (
	defaultUserPage  = 1
	maxUserPage      = 100000
	defaultUserLimit = 20
	maxUserLimit     = 100
)

// AdminDashboard returns the operational stats snapshot.
func AdminDashboard(svc adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		stats, err := svc.DashboardStats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// AdminListUsers pages through accounts with optional tier and search
// filters.
func AdminListUsers(svc adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", defaultUserPage, 1, maxUserPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultUserLimit, 1, maxUserLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var tierFilter *enums.Tier
		if raw := strings.TrimSpace(r.URL.Query().Get("tier")); raw != "" {
			tier, err := enums.ParseTier(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier"))
				return
			}
			tierFilter = &tier
		}

		result, err := svc.ListUsers(r.Context(), adminsvc.ListUsersParams{
			Tier:   tierFilter,
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 200),
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type updateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      *string `json:"role,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

func (body updateUserRequest) toUpdateParams() (adminsvc.UpdateUserParams, error) {
	params := adminsvc.UpdateUserParams{IsActive: body.IsActive}
	if body.FirstName != nil {
		name := validators.SanitizeString(*body.FirstName, 100)
		params.FirstName = &name
	}
	if body.LastName != nil {
		name := validators.SanitizeString(*body.LastName, 100)
		params.LastName = &name
	}
	if body.Role != nil {
		role, err := enums.ParseUserRole(strings.TrimSpace(*body.Role))
		if err != nil {
			return adminsvc.UpdateUserParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
		}
		params.Role = &role
	}
	return params, nil
}

// AdminUpdateUser applies a partial account update.
func AdminUpdateUser(svc adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := body.toUpdateParams()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.UpdateUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, account)
	}
}

// AdminAnalytics returns the daily series for one metric over an
// optional date window.
func AdminAnalytics(svc adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		metric := strings.TrimSpace(r.URL.Query().Get("metric"))
		if metric == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "metric is required"))
			return
		}

		from, err := validators.ParseQueryDate(r, "start_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "end_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Analytics(r.Context(), adminsvc.AnalyticsParams{
			Metric: adminsvc.AnalyticsMetric(metric),
			From:   from,
			To:     to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
