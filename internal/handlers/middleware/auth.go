package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/sup/internal/apperrors"
	"github.com/nkiryanov/sup/internal/handlers/render"
	"github.com/nkiryanov/sup/internal/handlers/userctx"
	"github.com/nkiryanov/sup/internal/logger"
	"github.com/nkiryanov/sup/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type errorLogger interface {
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// AuthMiddleware checks Basic credentials and puts user to request context
// Failed auth responds 401 with challenge for the realm
func AuthMiddleware(as authService, realm string, l errorLogger) func(http.Handler) http.Handler {
	challenge := fmt.Sprintf("Basic realm=%q, charset=\"UTF-8\"", realm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			switch {
			case errors.Is(err, apperrors.ErrUnauthorized):
				w.Header().Set("WWW-Authenticate", challenge)
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			case err != nil:
				l.ErrorContext(r.Context(), "auth failed", "error", err)
				render.InternalError(w)
				return
			}

			recordUser(r.Context(), user.ID.String())
			ctx := userctx.New(r.Context(), user)
			ctx = logger.ContextWith(ctx, "user_id", user.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
