package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/nkiryanov/sup/internal/apperrors"
	"github.com/nkiryanov/sup/internal/handlers/render"
	"github.com/nkiryanov/sup/internal/handlers/userctx"
	"github.com/nkiryanov/sup/internal/logger"
	"github.com/nkiryanov/sup/internal/models"
	"github.com/nkiryanov/sup/internal/objectid"
	"github.com/nkiryanov/sup/internal/service/validate"
)

const maxBodySize = 1 << 20

func handleListUsers(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		users, err := userService.ListUsers(r.Context())
		if err != nil {
			internalError(w, r, logger, "failed to list users", err)
			return
		}

		response := make([]models.UserResponse, 0, len(users))
		for _, u := range users {
			response = append(response, u.Response())
		}

		render.JSON(w, response)
	})
}

func handleGetUser(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Nothing can be stored under malformed id
		id, err := objectid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "User not found", http.StatusNotFound)
			return
		}

		user, err := userService.GetUser(r.Context(), id)
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		case err != nil:
			internalError(w, r, logger, "failed to get user", err, "id", id)
		default:
			render.JSON(w, user.Response())
		}
	})
}

func handleCreateUser(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := readBody(w, r)
		if !ok {
			return
		}

		fields, err := validate.User(data, validate.ForCreate)
		if err != nil {
			render.ValidationError(w, err)
			return
		}

		user, err := userService.CreateUser(r.Context(), fields)
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		case err != nil:
			internalError(w, r, logger, "failed to create user", err)
		default:
			logger.InfoContext(r.Context(), "user created", "id", user.ID)
			w.Header().Set("Location", "/users/"+user.ID.String())
			render.JSONWithStatus(w, user.Response(), http.StatusCreated)
		}
	})
}

func handleReplaceUser(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := objectid.Parse(r.PathValue("id"))
		if err != nil {
			render.ValidationError(w, &validate.FieldError{Kind: validate.IncorrectFieldType, Field: "_id"})
			return
		}

		data, ok := readBody(w, r)
		if !ok {
			return
		}

		// Body '_id' is only checked: path id wins
		fields, err := validate.User(data, validate.ForReplace)
		if err != nil {
			render.ValidationError(w, err)
			return
		}

		user, status, err := userService.ReplaceUser(r.Context(), id, fields)
		if err != nil {
			internalError(w, r, logger, "failed to replace user", err, "id", id)
			return
		}

		logger.InfoContext(r.Context(), "user replaced", "id", user.ID, "status", status.String())
		render.JSON(w, user.Response())
	})
}

func handleDeleteUser(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := objectid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "User not found", http.StatusNotFound)
			return
		}

		user, err := userService.DeleteUser(r.Context(), id)
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		case err != nil:
			internalError(w, r, logger, "failed to delete user", err, "id", id)
		default:
			actor, _ := userctx.FromContext(r.Context())
			logger.InfoContext(r.Context(), "user deleted", "id", user.ID, "by", actor.Username)
			render.JSON(w, user.Response())
		}
	})
}

// Read limited request body. Writes error response if not ok
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			render.ServiceError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		render.DecodeError(w, err)
		return nil, false
	}

	return data, true
}

func internalError(w http.ResponseWriter, r *http.Request, logger logger.Logger, msg string, err error, args ...any) {
	logger.ErrorContext(r.Context(), msg, append(args, "error", err)...)
	render.InternalError(w)
}
