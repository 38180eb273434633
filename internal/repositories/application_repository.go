package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

const leadApplicationSelect = `
	SELECT a.id, a.lead_id, l.name, l.email, a.course_id, COALESCE(c.title, ''), a.status, a.notes, a.created_at
	FROM applications a
	JOIN leads l ON l.id = a.lead_id
	LEFT JOIN courses c ON c.id = a.course_id
`

// applicationRepository implements ApplicationRepository
type applicationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApplicationRepository creates a new lead application repository
func NewApplicationRepository(db *sql.DB, logger *zap.Logger) *applicationRepository {
	return &applicationRepository{
		db:     db,
		logger: logger,
	}
}

func scanLeadApplication(row rowScanner) (*models.Application, error) {
	var app models.Application
	err := row.Scan(
		&app.ID,
		&app.LeadID,
		&app.LeadName,
		&app.LeadEmail,
		&app.CourseID,
		&app.CourseTitle,
		&app.Status,
		&app.Notes,
		&app.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	app.StatusHistory = []models.StatusHistoryEntry{}
	return &app, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, applicationID int, entry models.StatusHistoryEntry) error {
	query := `
		INSERT INTO application_status_history (application_id, status, changed_at, changed_by)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, applicationID, entry.Status, entry.ChangedAt, entry.ChangedBy); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

// Create inserts an application together with its first history entry
func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (lead_id, course_id, status, notes)
		VALUES (?, ?, ?, ?)
	`

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, app.LeadID, app.CourseID, app.Status, app.Notes)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		app.ID = int(id)

		for _, entry := range app.StatusHistory {
			if err := insertHistory(ctx, tx, app.ID, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to create application", zap.Error(err))
	}
	return err
}

// GetByID retrieves an application with its status history
func (r *applicationRepository) GetByID(ctx context.Context, id int) (*models.Application, error) {
	app, err := scanLeadApplication(r.db.QueryRowContext(ctx, leadApplicationSelect+` WHERE a.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("application not found")
	}
	if err != nil {
		r.logger.Error("failed to get application", zap.Error(err), zap.Int("application_id", id))
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	if err := r.attachHistory(ctx, []*models.Application{app}); err != nil {
		return nil, err
	}
	return app, nil
}

// GetAll retrieves all applications newest first with lead and course details
func (r *applicationRepository) GetAll(ctx context.Context) ([]models.Application, error) {
	rows, err := r.db.QueryContext(ctx, leadApplicationSelect+` ORDER BY a.created_at DESC, a.id DESC`)
	if err != nil {
		r.logger.Error("failed to query applications", zap.Error(err))
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var list []*models.Application
	for rows.Next() {
		app, err := scanLeadApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		list = append(list, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}

	if err := r.attachHistory(ctx, list); err != nil {
		return nil, err
	}

	apps := make([]models.Application, 0, len(list))
	for _, app := range list {
		apps = append(apps, *app)
	}
	return apps, nil
}

func (r *applicationRepository) attachHistory(ctx context.Context, apps []*models.Application) error {
	if len(apps) == 0 {
		return nil
	}

	byID := make(map[int]*models.Application, len(apps))
	ids := make([]int, 0, len(apps))
	for _, app := range apps {
		byID[app.ID] = app
		ids = append(ids, app.ID)
	}

	query := fmt.Sprintf(`
		SELECT application_id, status, changed_at, changed_by
		FROM application_status_history
		WHERE application_id IN (%s)
		ORDER BY changed_at, id
	`, placeholders(len(ids)))

	rows, err := r.db.QueryContext(ctx, query, intArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			applicationID int
			entry         models.StatusHistoryEntry
			changedBy     sql.NullInt64
		)
		if err := rows.Scan(&applicationID, &entry.Status, &entry.ChangedAt, &changedBy); err != nil {
			return fmt.Errorf("failed to scan status history: %w", err)
		}
		if changedBy.Valid {
			id := int(changedBy.Int64)
			entry.ChangedBy = &id
		}
		if app, ok := byID[applicationID]; ok {
			app.StatusHistory = append(app.StatusHistory, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating status history: %w", err)
	}
	return nil
}

// UpdateStatus sets the status, optionally the notes, and appends a history entry in one transaction
func (r *applicationRepository) UpdateStatus(ctx context.Context, id int, status models.LeadStatus, notes *string, changedBy int, now time.Time) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `UPDATE applications SET status = ? WHERE id = ?`
		args := []any{status, id}
		if notes != nil {
			query = `UPDATE applications SET status = ?, notes = ? WHERE id = ?`
			args = []any{status, *notes, id}
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update application status: %w", err)
		}

		return insertHistory(ctx, tx, id, models.StatusHistoryEntry{
			Status:    status,
			ChangedAt: now,
			ChangedBy: &changedBy,
		})
	})
	if err != nil {
		r.logger.Error("failed to update application status", zap.Error(err), zap.Int("application_id", id))
	}
	return err
}
