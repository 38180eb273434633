package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
)

// paymentIntentRepository implements PaymentIntentRepository
type paymentIntentRepository struct {
	db *sql.DB
}

// NewPaymentIntentRepository creates a new payment intent repository
func NewPaymentIntentRepository(db *sql.DB) *paymentIntentRepository {
	return &paymentIntentRepository{
		db: db,
	}
}

// Create stores a pending checkout form
func (r *paymentIntentRepository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	query := `
		INSERT INTO payment_intents (user_id, course_id, order_id, token, amount, provider, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		intent.UserID, intent.CourseID, intent.OrderID, intent.Token, intent.Amount, intent.Provider, intent.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment intent: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	intent.ID = int(id)
	return nil
}

// GetByToken retrieves a checkout form by its provider token
func (r *paymentIntentRepository) GetByToken(ctx context.Context, token string) (*models.PaymentIntent, error) {
	query := `
		SELECT id, user_id, course_id, order_id, token, amount, provider, status, created_at
		FROM payment_intents
		WHERE token = ?
		LIMIT 1
	`

	var (
		intent   models.PaymentIntent
		courseID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&intent.ID,
		&intent.UserID,
		&courseID,
		&intent.OrderID,
		&intent.Token,
		&intent.Amount,
		&intent.Provider,
		&intent.Status,
		&intent.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("payment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	if courseID.Valid {
		id := int(courseID.Int64)
		intent.CourseID = &id
	}

	return &intent, nil
}

// CompletePending moves a pending checkout form to status.
// It returns false when the form is no longer pending.
func (r *paymentIntentRepository) CompletePending(ctx context.Context, id int, status models.IntentStatus) (bool, error) {
	query := `UPDATE payment_intents SET status = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, status, id, models.IntentStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to update payment intent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}
