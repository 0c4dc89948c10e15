// Package user holds the account entity, roles, and the persistence contract
// used by authentication and user administration.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for account lookup and registration.
var (
	ErrNotFound       = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrBlocked        = errors.New("account is blocked")
)

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Role         string
	Blocked      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// List returns customer accounts (role "user"), newest first.
	List(ctx context.Context, page, pageSize int) ([]User, int64, error)
	SetBlocked(ctx context.Context, id string, blocked bool) (*User, error)
}
