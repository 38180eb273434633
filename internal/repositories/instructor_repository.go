package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

const applicationSelect = `
	SELECT a.id, a.user_id, u.name, u.email, a.status, a.bio, a.expertise, a.created_at, a.updated_at
	FROM instructor_applications a
	JOIN users u ON u.id = a.user_id
`

const profileSelect = `
	SELECT p.id, p.user_id, u.name, u.email, p.bio, p.expertise, p.website, p.twitter, p.linkedin
	FROM instructor_profiles p
	JOIN users u ON u.id = p.user_id
`

// instructorRepository implements InstructorRepository
type instructorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInstructorRepository creates a new instructor repository
func NewInstructorRepository(db *sql.DB, logger *zap.Logger) *instructorRepository {
	return &instructorRepository{
		db:     db,
		logger: logger,
	}
}

func scanApplication(row rowScanner) (*models.InstructorApplication, error) {
	var app models.InstructorApplication
	err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.UserName,
		&app.UserEmail,
		&app.Status,
		&app.Bio,
		&app.Expertise,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func scanProfile(row rowScanner) (*models.InstructorProfile, error) {
	var profile models.InstructorProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.UserName,
		&profile.UserEmail,
		&profile.Bio,
		&profile.Expertise,
		&profile.Website,
		&profile.Socials.Twitter,
		&profile.Socials.LinkedIn,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateApplication inserts a pending application. A user can hold only one application.
func (r *instructorRepository) CreateApplication(ctx context.Context, app *models.InstructorApplication) error {
	query := `
		INSERT INTO instructor_applications (user_id, status, bio, expertise)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, app.UserID, app.Status, app.Bio, app.Expertise)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperrors.AlreadyExists("you have already submitted an application")
		}
		r.logger.Error("failed to create instructor application", zap.Error(err))
		return fmt.Errorf("failed to create instructor application: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	app.ID = int(id)
	return nil
}

// ExistsApplicationForUser checks if the user already applied
func (r *instructorRepository) ExistsApplicationForUser(ctx context.Context, userID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM instructor_applications WHERE user_id = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check instructor application: %w", err)
	}
	return exists, nil
}

// GetApplicationByID retrieves an application by ID
func (r *instructorRepository) GetApplicationByID(ctx context.Context, id int) (*models.InstructorApplication, error) {
	app, err := scanApplication(r.db.QueryRowContext(ctx, applicationSelect+` WHERE a.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("application not found")
	}
	if err != nil {
		r.logger.Error("failed to get instructor application", zap.Error(err), zap.Int("application_id", id))
		return nil, fmt.Errorf("failed to get instructor application: %w", err)
	}
	return app, nil
}

// GetApplicationByUser retrieves the application of a user
func (r *instructorRepository) GetApplicationByUser(ctx context.Context, userID int) (*models.InstructorApplication, error) {
	app, err := scanApplication(r.db.QueryRowContext(ctx, applicationSelect+` WHERE a.user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("application not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instructor application: %w", err)
	}
	return app, nil
}

// GetApplications retrieves all applications, newest first
func (r *instructorRepository) GetApplications(ctx context.Context) ([]models.InstructorApplication, error) {
	rows, err := r.db.QueryContext(ctx, applicationSelect+` ORDER BY a.created_at DESC, a.id DESC`)
	if err != nil {
		r.logger.Error("failed to query instructor applications", zap.Error(err))
		return nil, fmt.Errorf("failed to query instructor applications: %w", err)
	}
	defer rows.Close()

	apps := make([]models.InstructorApplication, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instructor application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instructor applications: %w", err)
	}

	return apps, nil
}

// Approve marks a pending application approved, promotes the user and creates the profile in one transaction
func (r *instructorRepository) Approve(ctx context.Context, app *models.InstructorApplication) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE instructor_applications SET status = ? WHERE id = ? AND status = ?`,
			models.ApplicationStatusApproved, app.ID, models.ApplicationStatusPending,
		)
		if err != nil {
			return fmt.Errorf("failed to update application status: %w", err)
		}
		if err := checkAffected(result, apperrors.InvalidState("application has already been reviewed")); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, models.RoleInstructor, app.UserID); err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}

		profileQuery := `
			INSERT INTO instructor_profiles (user_id, bio, expertise)
			VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE bio = VALUES(bio), expertise = VALUES(expertise)
		`
		if _, err := tx.ExecContext(ctx, profileQuery, app.UserID, app.Bio, app.Expertise); err != nil {
			return fmt.Errorf("failed to create instructor profile: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, apperrors.ErrInvalidState) {
		r.logger.Error("failed to approve instructor application", zap.Error(err), zap.Int("application_id", app.ID))
	}
	if err == nil {
		app.Status = models.ApplicationStatusApproved
	}
	return err
}

// Reject marks a pending application rejected
func (r *instructorRepository) Reject(ctx context.Context, app *models.InstructorApplication) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE instructor_applications SET status = ? WHERE id = ? AND status = ?`,
		models.ApplicationStatusRejected, app.ID, models.ApplicationStatusPending,
	)
	if err != nil {
		r.logger.Error("failed to reject instructor application", zap.Error(err), zap.Int("application_id", app.ID))
		return fmt.Errorf("failed to reject instructor application: %w", err)
	}
	if err := checkAffected(result, apperrors.InvalidState("application has already been reviewed")); err != nil {
		return err
	}
	app.Status = models.ApplicationStatusRejected
	return nil
}

// GetProfiles retrieves all instructor profiles
func (r *instructorRepository) GetProfiles(ctx context.Context) ([]models.InstructorProfile, error) {
	rows, err := r.db.QueryContext(ctx, profileSelect+` ORDER BY u.name, p.id`)
	if err != nil {
		r.logger.Error("failed to query instructor profiles", zap.Error(err))
		return nil, fmt.Errorf("failed to query instructor profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.InstructorProfile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instructor profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instructor profiles: %w", err)
	}

	return profiles, nil
}

// GetProfileByID retrieves a profile by ID
func (r *instructorRepository) GetProfileByID(ctx context.Context, id int) (*models.InstructorProfile, error) {
	profile, err := scanProfile(r.db.QueryRowContext(ctx, profileSelect+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("instructor profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instructor profile: %w", err)
	}
	return profile, nil
}

// GetProfileByUser retrieves the profile of a user
func (r *instructorRepository) GetProfileByUser(ctx context.Context, userID int) (*models.InstructorProfile, error) {
	profile, err := scanProfile(r.db.QueryRowContext(ctx, profileSelect+` WHERE p.user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("instructor profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instructor profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile persists profile fields
func (r *instructorRepository) UpdateProfile(ctx context.Context, profile *models.InstructorProfile) error {
	query := `
		UPDATE instructor_profiles
		SET bio = ?, expertise = ?, website = ?, twitter = ?, linkedin = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query,
		profile.Bio, profile.Expertise, profile.Website, profile.Socials.Twitter, profile.Socials.LinkedIn, profile.ID,
	); err != nil {
		r.logger.Error("failed to update instructor profile", zap.Error(err), zap.Int("profile_id", profile.ID))
		return fmt.Errorf("failed to update instructor profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a profile and demotes its instructor to Student in one transaction.
// Admins keep their role and authored courses are left untouched.
func (r *instructorRepository) DeleteProfile(ctx context.Context, profile *models.InstructorProfile) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM instructor_profiles WHERE id = ?`, profile.ID)
		if err != nil {
			return fmt.Errorf("failed to delete instructor profile: %w", err)
		}
		if err := checkAffected(result, apperrors.NotFound("instructor profile not found")); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET role = ? WHERE id = ? AND role = ?`,
			models.RoleStudent, profile.UserID, models.RoleInstructor,
		); err != nil {
			return fmt.Errorf("failed to demote user: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		r.logger.Error("failed to delete instructor profile", zap.Error(err), zap.Int("profile_id", profile.ID))
	}
	return err
}
