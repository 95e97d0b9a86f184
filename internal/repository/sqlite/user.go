package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"github.com/nkiryanov/sup/internal/apperrors"
	"github.com/nkiryanov/sup/internal/models"
	"github.com/nkiryanov/sup/internal/objectid"
)

type UserRepo struct {
	DB Beginner
}

var userColumns = []string{"id", "seq", "created_at", "username", "password_hash"}

const returning = "RETURNING id, seq, created_at, username, password_hash"

func selectUsers() sq.SelectBuilder {
	return builder.Select(userColumns...).From("users")
}

func (r *UserRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	return createUser(ctx, r.DB, user)
}

func createUser(ctx context.Context, db DBTX, user models.User) (models.User, error) {
	query, args, err := builder.
		Insert("users").
		Columns("id", "created_at", "username", "password_hash").
		Values(user.ID.String(), time.Now().UTC(), user.Username, user.HashedPassword).
		Suffix(returning).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("query build error: %w", err)
	}

	created, err := scanUser(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isConstraintViolation(err) {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id objectid.ID) (models.User, error) {
	return getOne(ctx, r.DB, selectUsers().Where(sq.Eq{"id": id.String()}))
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return getOne(ctx, r.DB, selectUsers().
		Where(sq.Eq{"username": username}).
		OrderBy("seq").
		Limit(1),
	)
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	query, args, err := selectUsers().OrderBy("seq").ToSql()
	if err != nil {
		return nil, fmt.Errorf("query build error: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

// Sqlite allows one writer at a time, so the read-then-write inside tx is atomic
func (r *UserRepo) ReplaceUser(ctx context.Context, user models.User) (models.User, models.ReplaceStatus, error) {
	var (
		replaced models.User
		status   models.ReplaceStatus
	)

	err := inTx(ctx, r.DB, func(tx DBTX) error {
		existing, err := getOne(ctx, tx, selectUsers().Where(sq.Eq{"id": user.ID.String()}))

		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			status = models.Created
			replaced, err = createUser(ctx, tx, user)
			return err
		case err != nil:
			return err
		}

		status = models.Updated
		update := builder.
			Update("users").
			Set("username", user.Username).
			Where(sq.Eq{"id": existing.ID.String()}).
			Suffix(returning)
		if user.HashedPassword != "" {
			update = update.Set("password_hash", user.HashedPassword)
		}

		query, args, err := update.ToSql()
		if err != nil {
			return fmt.Errorf("query build error: %w", err)
		}

		replaced, err = scanUser(tx.QueryRowContext(ctx, query, args...))
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})

	return replaced, status, err
}

func (r *UserRepo) DeleteUser(ctx context.Context, id objectid.ID) (models.User, error) {
	query, args, err := builder.
		Delete("users").
		Where(sq.Eq{"id": id.String()}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("query build error: %w", err)
	}

	user, err := scanUser(r.DB.QueryRowContext(ctx, query, args...))

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, sql.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func getOne(ctx context.Context, db DBTX, b sq.SelectBuilder) (models.User, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("query build error: %w", err)
	}

	user, err := scanUser(db.QueryRowContext(ctx, query, args...))

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, sql.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var (
		u  models.User
		id string
	)
	err := row.Scan(&id, &u.Seq, timestamp{&u.CreatedAt}, &u.Username, &u.HashedPassword)
	u.ID = objectid.ID(id)
	return u, err
}

// Driver returns time.Time only when column type is known,
// for RETURNING clause it may come as text
type timestamp struct {
	t *time.Time
}

func (ts timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts.t = v
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case nil:
		*ts.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (ts timestamp) parse(s string) error {
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*ts.t = t
			return nil
		}
	}
	return fmt.Errorf("can't parse timestamp %q", s)
}
