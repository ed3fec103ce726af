package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Freeeeeet/booking_desk/internal/model"
)

// UserHeader carries the caller's user id, set by the authenticating proxy.
const UserHeader = "X-User-Id"

type contextKey string

const userKey contextKey = "user"

// UserLookup resolves the id in UserHeader.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// requireRole loads the caller and rejects requests from unknown users or
// users outside roles. No roles means any known user.
func requireRole(users UserLookup, logger *zap.Logger, roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(UserHeader)
			if id == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing " + UserHeader + " header"})
				return
			}
			user, err := users.GetByID(r.Context(), id)
			if err != nil {
				writeError(w, r, logger, err)
				return
			}
			if user == nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unknown user"})
				return
			}
			if len(roles) > 0 && !hasRole(user, roles) {
				writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

func hasRole(user *model.User, roles []model.Role) bool {
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// currentUser is set by requireRole.
func currentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.Debug("HTTP request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
