package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/sup/internal/apperrors"
	"github.com/nkiryanov/sup/internal/models"
	"github.com/nkiryanov/sup/internal/objectid"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, seq, created_at, username, password_hash`

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, password_hash)
VALUES ($1, $2, $3)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, user.ID, user.Username, user.HashedPassword)
	created, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, apperrors.ErrUserAlreadyExists
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id objectid.ID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectOne(rows)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT ` + userColumns + ` FROM users
WHERE username = $1
ORDER BY seq
LIMIT 1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	return collectOne(rows)
}

const listUsers = `-- name: ListUsers
SELECT ` + userColumns + ` FROM users
ORDER BY seq
`

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listUsers)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if users == nil {
		users = []models.User{}
	}

	return users, nil
}

// xmax is zero only for the row version created by INSERT
const replaceUser = `-- name: ReplaceUser
INSERT INTO users AS u (id, username, password_hash)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET
	username = EXCLUDED.username,
	password_hash = CASE WHEN EXCLUDED.password_hash = '' THEN u.password_hash ELSE EXCLUDED.password_hash END
RETURNING ` + userColumns + `, (xmax = 0) AS inserted
`

func (r *UserRepo) ReplaceUser(ctx context.Context, user models.User) (models.User, models.ReplaceStatus, error) {
	var (
		u        models.User
		inserted bool
	)

	err := r.DB.QueryRow(ctx, replaceUser, user.ID, user.Username, user.HashedPassword).
		Scan(&u.ID, &u.Seq, &u.CreatedAt, &u.Username, &u.HashedPassword, &inserted)
	if err != nil {
		return u, models.Updated, fmt.Errorf("db error: %w", err)
	}

	if inserted {
		return u, models.Created, nil
	}
	return u, models.Updated, nil
}

const deleteUser = `-- name: DeleteUser
DELETE FROM users
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) DeleteUser(ctx context.Context, id objectid.ID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, deleteUser, id)
	return collectOne(rows)
}

func collectOne(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Seq, &u.CreatedAt, &u.Username, &u.HashedPassword)
	return u, err
}
