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

const enrollmentSelect = `
	SELECT
		e.id, e.user_id, e.course_id, COALESCE(c.title, ''), e.payment_status, e.payment_amount,
		e.payment_method, e.payment_date, e.progress, e.completed_lectures, e.last_accessed_at,
		e.completed_at, e.rating, e.review, e.is_active, e.enrolled_at
	FROM enrollments e
	LEFT JOIN courses c ON c.id = e.course_id
`

// enrollmentRepository implements EnrollmentRepository
type enrollmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB, logger *zap.Logger) *enrollmentRepository {
	return &enrollmentRepository{
		db:     db,
		logger: logger,
	}
}

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var (
		enrollment  models.Enrollment
		paymentDate sql.NullTime
		completedAt sql.NullTime
		rating      sql.NullInt64
	)
	err := row.Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.CourseID,
		&enrollment.CourseTitle,
		&enrollment.PaymentStatus,
		&enrollment.PaymentAmount,
		&enrollment.PaymentMethod,
		&paymentDate,
		&enrollment.Progress,
		&enrollment.CompletedLectures,
		&enrollment.LastAccessedAt,
		&completedAt,
		&rating,
		&enrollment.Review,
		&enrollment.IsActive,
		&enrollment.EnrolledAt,
	)
	if err != nil {
		return nil, err
	}
	if paymentDate.Valid {
		t := paymentDate.Time
		enrollment.PaymentDate = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		enrollment.CompletedAt = &t
	}
	if rating.Valid {
		v := int(rating.Int64)
		enrollment.Rating = &v
	}
	if enrollment.CompletedLectures == nil {
		enrollment.CompletedLectures = models.StringList{}
	}
	return &enrollment, nil
}

// Create inserts an enrollment. A second enrollment for the same (user, course) fails with AlreadyEnrolled.
func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (
			user_id, course_id, payment_status, payment_amount, payment_method, payment_date,
			progress, completed_lectures, last_accessed_at, is_active, enrolled_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		enrollment.UserID, enrollment.CourseID, enrollment.PaymentStatus, enrollment.PaymentAmount,
		enrollment.PaymentMethod, enrollment.PaymentDate, enrollment.Progress, enrollment.CompletedLectures,
		enrollment.LastAccessedAt, enrollment.IsActive, enrollment.EnrolledAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperrors.AlreadyEnrolled("already enrolled in this course")
		}
		r.logger.Error("failed to create enrollment", zap.Error(err))
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	enrollment.ID = int(id)
	return nil
}

// GetByUserAndCourse retrieves the enrollment of a user in a course
func (r *enrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	enrollment, err := scanEnrollment(r.db.QueryRowContext(ctx,
		enrollmentSelect+` WHERE e.user_id = ? AND e.course_id = ?`, userID, courseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("enrollment not found")
	}
	if err != nil {
		r.logger.Error("failed to get enrollment", zap.Error(err), zap.Int("user_id", userID), zap.Int("course_id", courseID))
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return enrollment, nil
}

// GetByUser retrieves a user's enrollments, newest first
func (r *enrollmentRepository) GetByUser(ctx context.Context, userID int) ([]models.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, enrollmentSelect+`
		WHERE e.user_id = ?
		ORDER BY e.enrolled_at DESC, e.id DESC
	`, userID)
	if err != nil {
		r.logger.Error("failed to query enrollments", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]models.Enrollment, 0)
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, *enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return enrollments, nil
}

// UpdateProgress persists completed lectures and the derived progress
func (r *enrollmentRepository) UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		UPDATE enrollments
		SET completed_lectures = ?, progress = ?, last_accessed_at = ?, completed_at = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query,
		enrollment.CompletedLectures, enrollment.Progress, enrollment.LastAccessedAt,
		enrollment.CompletedAt, enrollment.ID,
	); err != nil {
		r.logger.Error("failed to update enrollment progress", zap.Error(err), zap.Int("enrollment_id", enrollment.ID))
		return fmt.Errorf("failed to update enrollment progress: %w", err)
	}
	return nil
}

// UpdateReview stores the rating and review of an enrollment
func (r *enrollmentRepository) UpdateReview(ctx context.Context, enrollmentID, rating int, review string) error {
	query := `UPDATE enrollments SET rating = ?, review = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, rating, review, enrollmentID); err != nil {
		r.logger.Error("failed to update review", zap.Error(err), zap.Int("enrollment_id", enrollmentID))
		return fmt.Errorf("failed to update review: %w", err)
	}
	return nil
}
