package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapit/storefront/internal/domain/feedback"
)

const (
	// Listings join users so admin views show who submitted the entry.
	feedbackColumns = `f.id, f.user_id, u.name, u.email, f.subject, f.message, f.rating, f.status, f.created_at, f.updated_at`

	createFeedbackSQL = `INSERT INTO feedback (id, user_id, subject, message, rating, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateFeedbackStatusSQL = `UPDATE feedback SET status = $2, updated_at = now() WHERE id = $1`

	getFeedbackByIDSQL = `SELECT ` + feedbackColumns + `
		FROM feedback f JOIN users u ON u.id = f.user_id WHERE f.id = $1`
)

var _ feedback.Repository = (*FeedbackRepository)(nil)

// FeedbackRepository implements feedback.Repository backed by PostgreSQL.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository returns a FeedbackRepository that uses the given pool.
func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Create persists a new feedback entry.
func (r *FeedbackRepository) Create(ctx context.Context, f *feedback.Feedback) error {
	_, err := r.pool.Exec(ctx, createFeedbackSQL,
		f.ID, f.UserID, f.Subject, f.Message, f.Rating, f.Status,
	)
	if err != nil {
		return fmt.Errorf("creating feedback %q: %w", f.ID, err)
	}
	return nil
}

// List returns a page of feedback (optionally filtered by status), newest
// first, plus the unpaged total.
func (r *FeedbackRepository) List(ctx context.Context, filter feedback.ListFilter) ([]feedback.Feedback, int64, error) {
	where := `WHERE ($1 = '' OR f.status = $1)`

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM feedback f `+where, filter.Status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting feedback: %w", err)
	}

	limit, offset := pageOffset(filter.Page, filter.PageSize)
	rows, err := r.pool.Query(ctx,
		`SELECT `+feedbackColumns+` FROM feedback f JOIN users u ON u.id = f.user_id `+
			where+` ORDER BY f.created_at DESC LIMIT $2 OFFSET $3`,
		filter.Status, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing feedback: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanFeedback)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning feedback: %w", err)
	}
	return entries, total, nil
}

// UpdateStatus moves a feedback entry to a new moderation status and returns
// the updated row.
func (r *FeedbackRepository) UpdateStatus(ctx context.Context, id, status string) (*feedback.Feedback, error) {
	tag, err := r.pool.Exec(ctx, updateFeedbackStatusSQL, id, status)
	if err != nil {
		return nil, fmt.Errorf("updating feedback %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, feedback.ErrNotFound
	}

	rows, err := r.pool.Query(ctx, getFeedbackByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting feedback %q: %w", id, err)
	}
	f, err := pgx.CollectExactlyOneRow(rows, scanFeedback)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, feedback.ErrNotFound
		}
		return nil, fmt.Errorf("getting feedback %q: %w", id, err)
	}
	return &f, nil
}

func scanFeedback(row pgx.CollectableRow) (feedback.Feedback, error) {
	var f feedback.Feedback
	err := row.Scan(
		&f.ID, &f.UserID, &f.UserName, &f.UserEmail, &f.Subject,
		&f.Message, &f.Rating, &f.Status, &f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}
