package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/loyaltyhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

const (
	defaultRequestLimit  = 120
	defaultRequestWindow = time.Minute
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit throttles authenticated traffic with a per-user fixed
// window counter. Requests without a user context share one bucket.
func RateLimit(store fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := UserIDFromContext(r.Context())
			if scope == "" {
				scope = "anonymous"
			}

			allowed, count, err := store.FixedWindowAllow(r.Context(), scope, defaultRequestLimit, defaultRequestWindow)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(r.Context(), map[string]any{
						"scope":    scope,
						"attempts": count,
						"limit":    defaultRequestLimit,
					})
					logg.Warn(logCtx, "rate_limit.blocked")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
