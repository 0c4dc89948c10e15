// Package feedback holds customer feedback submissions and their moderation
// lifecycle.
package feedback

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for feedback operations.
var (
	ErrNotFound      = errors.New("feedback not found")
	ErrInvalidStatus = errors.New("invalid feedback status")
)

// Status values a feedback entry moves through during moderation.
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusResolved = "resolved"
)

// ValidStatus reports whether s is a known moderation status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusReviewed, StatusResolved:
		return true
	}
	return false
}

// Feedback is a customer-submitted rating with a free-form message.
type Feedback struct {
	ID        string
	UserID    string
	UserName  string
	UserEmail string
	Subject   string
	Message   string
	Rating    int
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter pages feedback listings with an optional status filter.
type ListFilter struct {
	Status   string
	Page     int
	PageSize int
}

// Repository defines persistence operations for feedback.
type Repository interface {
	Create(ctx context.Context, f *Feedback) error
	List(ctx context.Context, filter ListFilter) ([]Feedback, int64, error)
	UpdateStatus(ctx context.Context, id, status string) (*Feedback, error)
}
