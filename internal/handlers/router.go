package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/sup/internal/handlers/middleware"
	"github.com/nkiryanov/sup/internal/handlers/render"
	"github.com/nkiryanov/sup/internal/logger"
	"github.com/nkiryanov/sup/internal/models"
	"github.com/nkiryanov/sup/internal/objectid"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	// Realm sent in Basic auth challenge
	Realm string
}

// NewRouter builds the users resource
// Reads require Basic auth, create and replace are open
func NewRouter(
	cfg RouterConfig,
	authService authService,
	userService userService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService, cfg.Realm, logger)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	mux := http.NewServeMux()

	mux.Handle("GET /users", withAuth(handleListUsers(userService, logger)))
	mux.Handle("POST /users", handleCreateUser(userService, logger))
	mux.Handle("GET /users/{id}", withAuth(handleGetUser(userService, logger)))
	mux.Handle("PUT /users/{id}", handleReplaceUser(userService, logger))
	mux.Handle("DELETE /users/{id}", withAuth(handleDeleteUser(userService, logger)))

	handler := chain(jsonFallback(mux),
		middleware.RequestID,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

// jsonFallback renders responses written by mux itself (no route matched) as JSON error bodies
// Allow and Location headers set by mux are kept
func jsonFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		mux.ServeHTTP(&fallbackWriter{ResponseWriter: w}, r)
	})
}

type fallbackWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *fallbackWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	w.Header().Del("X-Content-Type-Options")
	render.ServiceError(w.ResponseWriter, http.StatusText(statusCode), statusCode)
}

// Plain text body from mux is replaced by the JSON one
func (w *fallbackWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return len(p), nil
}

type authService interface {
	// Get request and return user if it authenticated or error
	// Has to return apperrors.ErrUnauthorized if credentials are missing or wrong
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	ListUsers(ctx context.Context) ([]models.User, error)

	// Has to return apperrors.ErrUserNotFound if user not found
	GetUser(ctx context.Context, id objectid.ID) (models.User, error)

	// Has to return apperrors.ErrUserAlreadyExists if id is taken
	CreateUser(ctx context.Context, fields models.UserFields) (models.User, error)

	ReplaceUser(ctx context.Context, id objectid.ID, fields models.UserFields) (models.User, models.ReplaceStatus, error)

	// Has to return apperrors.ErrUserNotFound if user not found
	DeleteUser(ctx context.Context, id objectid.ID) (models.User, error)
}
