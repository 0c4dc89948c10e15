package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapit/storefront/internal/domain/user"
)

const (
	userColumns = `id, name, email, password_hash, phone, role, is_blocked, created_at, updated_at`

	createUserSQL = `INSERT INTO users (id, name, email, password_hash, phone, role, is_blocked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	getUserByIDSQL    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	listUsersSQL = `SELECT ` + userColumns + ` FROM users WHERE role = 'user'
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	countUsersSQL = `SELECT count(*) FROM users WHERE role = 'user'`

	setUserBlockedSQL = `UPDATE users SET is_blocked = $2, updated_at = now() WHERE id = $1
		RETURNING ` + userColumns
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create persists a new account. A duplicate email maps to user.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx, createUserSQL,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Phone, u.Role, u.Blocked,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// GetByID returns a single account by its identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByEmail returns a single account by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

func (r *UserRepository) getOne(ctx context.Context, sql, arg string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// List returns a page of customer accounts, newest first, plus the total.
func (r *UserRepository) List(ctx context.Context, page, pageSize int) ([]user.User, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, countUsersSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	limit, offset := pageOffset(page, pageSize)
	rows, err := r.pool.Query(ctx, listUsersSQL, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}

	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning users: %w", err)
	}
	return users, total, nil
}

// SetBlocked flips an account's blocked flag and returns the updated row.
func (r *UserRepository) SetBlocked(ctx context.Context, id string, blocked bool) (*user.User, error) {
	rows, err := r.pool.Query(ctx, setUserBlockedSQL, id, blocked)
	if err != nil {
		return nil, fmt.Errorf("blocking user %q: %w", id, err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("blocking user %q: %w", id, err)
	}
	return &u, nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone,
		&u.Role, &u.Blocked, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}
