package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

const courseSelect = `
	SELECT
		c.id, c.title, c.description, c.short_description, c.instructor_id, COALESCE(u.name, ''),
		c.price, c.discount_percentage, c.discount_end_date, c.cover_image, c.is_published,
		c.level, c.language, c.tags, c.requirements, c.learning_outcomes,
		c.certificate_included, c.is_featured, c.sections, c.total_duration, c.total_lectures,
		c.enrollment_count, c.rating, c.review_count, c.created_at, c.updated_at
	FROM courses c
	LEFT JOIN users u ON u.id = c.instructor_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

// courseRepository implements CourseRepository
type courseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB, logger *zap.Logger) *courseRepository {
	return &courseRepository{
		db:     db,
		logger: logger,
	}
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var (
		course          models.Course
		instructorID    sql.NullInt64
		discountEndDate sql.NullTime
	)
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.ShortDescription,
		&instructorID,
		&course.InstructorName,
		&course.Price,
		&course.DiscountPercentage,
		&discountEndDate,
		&course.CoverImage,
		&course.IsPublished,
		&course.Level,
		&course.Language,
		&course.Tags,
		&course.Requirements,
		&course.LearningOutcomes,
		&course.CertificateIncluded,
		&course.IsFeatured,
		&course.Sections,
		&course.TotalDuration,
		&course.TotalLectures,
		&course.EnrollmentCount,
		&course.Rating,
		&course.ReviewCount,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if instructorID.Valid {
		id := int(instructorID.Int64)
		course.InstructorID = &id
	}
	if discountEndDate.Valid {
		t := discountEndDate.Time
		course.DiscountEndDate = &t
	}
	if course.Sections == nil {
		course.Sections = models.Sections{}
	}
	course.Categories = []models.CategoryRef{}
	return &course, nil
}

// Create inserts a course together with its category links
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (
			title, description, short_description, instructor_id, price, discount_percentage,
			discount_end_date, cover_image, is_published, level, language, tags, requirements,
			learning_outcomes, certificate_included, is_featured, sections, total_duration, total_lectures
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			course.Title, course.Description, course.ShortDescription, course.InstructorID,
			course.Price, course.DiscountPercentage, course.DiscountEndDate, course.CoverImage,
			course.IsPublished, course.Level, course.Language, course.Tags, course.Requirements,
			course.LearningOutcomes, course.CertificateIncluded, course.IsFeatured, course.Sections,
			course.TotalDuration, course.TotalLectures,
		)
		if err != nil {
			if isDuplicateEntry(err) {
				return apperrors.AlreadyExists("course with this title already exists")
			}
			return fmt.Errorf("failed to create course: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		course.ID = int(id)

		return insertCourseCategories(ctx, tx, course.ID, course.CategoryIDs())
	})
	if err != nil && !errors.Is(err, apperrors.ErrAlreadyExists) {
		r.logger.Error("failed to create course", zap.Error(err))
	}
	return err
}

func insertCourseCategories(ctx context.Context, tx *sql.Tx, courseID int, categoryIDs []int) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	values := make([]string, 0, len(categoryIDs))
	args := make([]any, 0, len(categoryIDs)*2)
	for _, categoryID := range categoryIDs {
		values = append(values, "(?, ?)")
		args = append(args, courseID, categoryID)
	}

	query := `INSERT INTO course_categories (course_id, category_id) VALUES ` + strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to link course categories: %w", err)
	}
	return nil
}

// GetByID retrieves a course with its categories
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	course, err := scanCourse(r.db.QueryRowContext(ctx, courseSelect+` WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("course not found")
	}
	if err != nil {
		r.logger.Error("failed to get course", zap.Error(err), zap.Int("course_id", id))
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := r.attachCategories(ctx, []*models.Course{course}); err != nil {
		return nil, err
	}
	return course, nil
}

// Exists reports whether a course with the given id exists
func (r *courseRepository) Exists(ctx context.Context, id int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM courses WHERE id = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check course existence: %w", err)
	}
	return exists, nil
}

// ExistsByTitle checks if another course already uses the title
func (r *courseRepository) ExistsByTitle(ctx context.Context, title string, excludeID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM courses WHERE title = ? AND id <> ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, title, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check course title: %w", err)
	}
	return exists, nil
}

// GetPublished retrieves published courses with filtering and pagination
func (r *courseRepository) GetPublished(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	whereClauses := []string{"c.is_published = 1"}
	var args []any

	if filter.CategoryID != nil {
		whereClauses = append(whereClauses, "EXISTS (SELECT 1 FROM course_categories cc WHERE cc.course_id = c.id AND cc.category_id = ?)")
		args = append(args, *filter.CategoryID)
	}

	if filter.Level != nil {
		whereClauses = append(whereClauses, "c.level = ?")
		args = append(args, *filter.Level)
	}

	if filter.Search != "" {
		whereClauses = append(whereClauses, "(c.title LIKE ? OR c.description LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	page, count := filter.Page, filter.Count
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = 10
	}

	query := courseSelect + " WHERE " + strings.Join(whereClauses, " AND ") + `
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, count, (page-1)*count)

	return r.queryCourses(ctx, query, args...)
}

// GetByInstructor retrieves an instructor's courses, optionally filtered by publish state
func (r *courseRepository) GetByInstructor(ctx context.Context, instructorID int, published *bool) ([]models.Course, error) {
	query := courseSelect + ` WHERE c.instructor_id = ?`
	args := []any{instructorID}
	if published != nil {
		query += ` AND c.is_published = ?`
		args = append(args, *published)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC`

	return r.queryCourses(ctx, query, args...)
}

// GetPublishedByCategory retrieves every published course linked to a category
func (r *courseRepository) GetPublishedByCategory(ctx context.Context, categoryID int) ([]models.Course, error) {
	query := courseSelect + `
		JOIN course_categories cc ON cc.course_id = c.id
		WHERE cc.category_id = ? AND c.is_published = 1
		ORDER BY c.created_at DESC, c.id DESC
	`
	return r.queryCourses(ctx, query, categoryID)
}

// CountByCategory returns how many courses reference a category
func (r *courseRepository) CountByCategory(ctx context.Context, categoryID int) (int, error) {
	query := `SELECT COUNT(*) FROM course_categories WHERE category_id = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, categoryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count category courses: %w", err)
	}
	return count, nil
}

// GetAll retrieves every course regardless of publish state
func (r *courseRepository) GetAll(ctx context.Context) ([]models.Course, error) {
	return r.queryCourses(ctx, courseSelect+` ORDER BY c.created_at DESC, c.id DESC`)
}

func (r *courseRepository) queryCourses(ctx context.Context, query string, args ...any) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query courses", zap.Error(err))
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var list []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		list = append(list, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	if err := r.attachCategories(ctx, list); err != nil {
		return nil, err
	}

	courses := make([]models.Course, 0, len(list))
	for _, course := range list {
		courses = append(courses, *course)
	}
	return courses, nil
}

// attachCategories loads category references for all courses in one query
func (r *courseRepository) attachCategories(ctx context.Context, courses []*models.Course) error {
	if len(courses) == 0 {
		return nil
	}

	byID := make(map[int]*models.Course, len(courses))
	ids := make([]int, 0, len(courses))
	for _, course := range courses {
		byID[course.ID] = course
		ids = append(ids, course.ID)
	}

	query := fmt.Sprintf(`
		SELECT cc.course_id, cat.id, cat.name
		FROM course_categories cc
		JOIN categories cat ON cat.id = cc.category_id
		WHERE cc.course_id IN (%s)
		ORDER BY cat.name
	`, placeholders(len(ids)))

	rows, err := r.db.QueryContext(ctx, query, intArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to query course categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			courseID int
			ref      models.CategoryRef
		)
		if err := rows.Scan(&courseID, &ref.ID, &ref.Name); err != nil {
			return fmt.Errorf("failed to scan course category: %w", err)
		}
		if course, ok := byID[courseID]; ok {
			course.Categories = append(course.Categories, ref)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating course categories: %w", err)
	}
	return nil
}

// Update persists every editable column and replaces the category links
func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses SET
			title = ?, description = ?, short_description = ?, price = ?, discount_percentage = ?,
			discount_end_date = ?, cover_image = ?, is_published = ?, level = ?, language = ?,
			tags = ?, requirements = ?, learning_outcomes = ?, certificate_included = ?,
			is_featured = ?, sections = ?, total_duration = ?, total_lectures = ?
		WHERE id = ?
	`

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query,
			course.Title, course.Description, course.ShortDescription, course.Price,
			course.DiscountPercentage, course.DiscountEndDate, course.CoverImage, course.IsPublished,
			course.Level, course.Language, course.Tags, course.Requirements, course.LearningOutcomes,
			course.CertificateIncluded, course.IsFeatured, course.Sections, course.TotalDuration,
			course.TotalLectures, course.ID,
		); err != nil {
			if isDuplicateEntry(err) {
				return apperrors.AlreadyExists("course with this title already exists")
			}
			return fmt.Errorf("failed to update course: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM course_categories WHERE course_id = ?`, course.ID); err != nil {
			return fmt.Errorf("failed to unlink course categories: %w", err)
		}
		return insertCourseCategories(ctx, tx, course.ID, course.CategoryIDs())
	})
	if err != nil && !errors.Is(err, apperrors.ErrAlreadyExists) {
		r.logger.Error("failed to update course", zap.Error(err), zap.Int("course_id", course.ID))
	}
	return err
}

// UpdateSections persists the section aggregate and its derived totals in one statement
func (r *courseRepository) UpdateSections(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET sections = ?, total_lectures = ?, total_duration = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, course.Sections, course.TotalLectures, course.TotalDuration, course.ID)
	if err != nil {
		r.logger.Error("failed to update course sections", zap.Error(err), zap.Int("course_id", course.ID))
		return fmt.Errorf("failed to update course sections: %w", err)
	}
	return checkAffected(result, apperrors.NotFound("course not found"))
}

// SetPublished sets the publish flag of a course
func (r *courseRepository) SetPublished(ctx context.Context, id int, published bool) error {
	query := `UPDATE courses SET is_published = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, published, id); err != nil {
		r.logger.Error("failed to set course publish state", zap.Error(err), zap.Int("course_id", id))
		return fmt.Errorf("failed to set course publish state: %w", err)
	}
	return nil
}

// Delete removes a course. Enrollments referencing it are kept.
func (r *courseRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM courses WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to delete course", zap.Error(err), zap.Int("course_id", id))
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return checkAffected(result, apperrors.NotFound("course not found"))
}

// RecountEnrollments sets enrollment_count from the enrollments table.
// The result does not depend on how often it runs.
func (r *courseRepository) RecountEnrollments(ctx context.Context, courseID int) error {
	query := `
		UPDATE courses
		SET enrollment_count = (
			SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND is_active = 1
		)
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, courseID, courseID); err != nil {
		return fmt.Errorf("failed to recount enrollments: %w", err)
	}
	return nil
}

// RecalculateRating sets rating and review_count from enrollment reviews
func (r *courseRepository) RecalculateRating(ctx context.Context, courseID int) error {
	query := `
		UPDATE courses c
		JOIN (
			SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(rating) AS reviews
			FROM enrollments
			WHERE course_id = ? AND rating IS NOT NULL
		) r
		SET c.rating = ROUND(r.avg_rating, 1), c.review_count = r.reviews
		WHERE c.id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, courseID, courseID); err != nil {
		return fmt.Errorf("failed to recalculate rating: %w", err)
	}
	return nil
}
