package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
)

// leadRepository implements LeadRepository
type leadRepository struct {
	db *sql.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *sql.DB) *leadRepository {
	return &leadRepository{
		db: db,
	}
}

// GetByEmail retrieves a lead by lowercased email
func (r *leadRepository) GetByEmail(ctx context.Context, email string) (*models.Lead, error) {
	query := `
		SELECT id, name, email, phone, created_at
		FROM leads
		WHERE email = ?
		LIMIT 1
	`

	lead := &models.Lead{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("lead not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead by email: %w", err)
	}

	return lead, nil
}

// Create inserts a new lead
func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	query := `INSERT INTO leads (name, email, phone) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, lead.Name, lead.Email, lead.Phone)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperrors.AlreadyExists("lead with this email already exists")
		}
		return fmt.Errorf("failed to create lead: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	lead.ID = int(id)
	return nil
}

// UpdateContact updates the name and phone of a lead
func (r *leadRepository) UpdateContact(ctx context.Context, lead *models.Lead) error {
	query := `UPDATE leads SET name = ?, phone = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, lead.Name, lead.Phone, lead.ID); err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return nil
}
