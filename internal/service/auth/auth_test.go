package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/sup/internal/apperrors"
	"github.com/nkiryanov/sup/internal/models"
	"github.com/nkiryanov/sup/internal/objectid"
	"github.com/nkiryanov/sup/internal/repository/sqlite"
	"github.com/nkiryanov/sup/internal/testutil"
)

// Allow to use a function as user repo
type repoFunc func(ctx context.Context, username string) (models.User, error)

func (f repoFunc) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return f(ctx, username)
}

func Test_Auth(t *testing.T) {
	t.Parallel()

	hasher := BcryptHasher{Cost: bcrypt.MinCost}

	// New AuthService on top of fresh in-memory database
	newService := func(t *testing.T) (*AuthService, *sqlite.UserRepo) {
		repo := &sqlite.UserRepo{DB: testutil.OpenSQLite(t)}
		s, err := NewService(Config{Hasher: hasher}, repo)
		require.NoError(t, err, "auth service could't be started")
		return s, repo
	}

	createUser := func(t *testing.T, repo *sqlite.UserRepo, username string, password string) models.User {
		hash := ""
		if password != "" {
			var err error
			hash, err = hasher.Hash(password)
			require.NoError(t, err)
		}
		user, err := repo.CreateUser(t.Context(), models.User{ID: objectid.New(), Username: username, HashedPassword: hash})
		require.NoError(t, err)
		return user
	}

	t.Run("new auth service defaults", func(t *testing.T) {
		s, err := NewService(Config{}, repoFunc(nil))
		require.NoError(t, err, "auth service should be created without errors")

		require.Equal(t, DefaultHasher, s.hasher, "default hasher should be set to BcryptHasher")
	})

	t.Run("new auth service without repo", func(t *testing.T) {
		_, err := NewService(Config{}, nil)

		require.Error(t, err)
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			s, repo := newService(t)
			created := createUser(t, repo, "fred", "why123")

			user, err := s.Authenticate(t.Context(), "fred", "why123")

			require.NoError(t, err)
			require.Equal(t, created.ID, user.ID)
		})

		t.Run("wrong password", func(t *testing.T) {
			s, repo := newService(t)
			createUser(t, repo, "fred", "why123")

			_, err := s.Authenticate(t.Context(), "fred", "wrong")

			require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})

		t.Run("unknown user", func(t *testing.T) {
			s, _ := newService(t)

			_, err := s.Authenticate(t.Context(), "nobody", "why123")

			require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})

		t.Run("user without password", func(t *testing.T) {
			s, repo := newService(t)
			createUser(t, repo, "maude", "")

			_, err := s.Authenticate(t.Context(), "maude", "")

			require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})

		t.Run("duplicate usernames check first inserted", func(t *testing.T) {
			s, repo := newService(t)
			first := createUser(t, repo, "twin", "first-pwd")
			createUser(t, repo, "twin", "second-pwd")

			user, err := s.Authenticate(t.Context(), "twin", "first-pwd")
			require.NoError(t, err)
			require.Equal(t, first.ID, user.ID)

			_, err = s.Authenticate(t.Context(), "twin", "second-pwd")
			require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})

		t.Run("repo failure is not unauthorized", func(t *testing.T) {
			s, err := NewService(Config{Hasher: hasher}, repoFunc(func(context.Context, string) (models.User, error) {
				return models.User{}, errors.New("connection refused")
			}))
			require.NoError(t, err)

			_, err = s.Authenticate(t.Context(), "fred", "why123")

			require.Error(t, err)
			require.NotErrorIs(t, err, apperrors.ErrUnauthorized)
		})
	})

	t.Run("Auth request", func(t *testing.T) {
		s, repo := newService(t)
		createUser(t, repo, "joe", "abc123")

		tests := []struct {
			name     string
			setup    func(r *http.Request)
			authFail bool
		}{
			{"valid basic", func(r *http.Request) { r.SetBasicAuth("joe", "abc123") }, false},
			{"wrong basic", func(r *http.Request) { r.SetBasicAuth("joe", "nope") }, true},
			{"no header", func(r *http.Request) {}, true},
			{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer token") }, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := httptest.NewRequest(http.MethodGet, "/users", nil)
				tt.setup(r)

				user, err := s.Auth(t.Context(), r)

				if tt.authFail {
					require.ErrorIs(t, err, apperrors.ErrUnauthorized)
					return
				}
				require.NoError(t, err)
				require.Equal(t, "joe", user.Username)
			})
		}
	})
}
