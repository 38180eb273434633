package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// EnrollmentRepository is the interface that wraps methods for enrollments table data access
type EnrollmentRepository interface {
	// Method Create inserts an enrollment.
	//
	// A second enrollment for the same user and course fails with an AlreadyEnrolled error.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	// Method GetByUserAndCourse retrieves the enrollment of a user in a course.
	//
	// If there is none, a NotFound error is returned together with "nil" value.
	GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error)
	// Method GetByUser retrieves a user's enrollments, newest first.
	GetByUser(ctx context.Context, userID int) ([]models.Enrollment, error)
	// Method UpdateProgress persists completed lectures and the derived progress.
	UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error
	// Method UpdateReview stores the rating and review of an enrollment.
	UpdateReview(ctx context.Context, enrollmentID, rating int, review string) error
}

// enrollmentLedger records enrollments and keeps the denormalized copies in step.
// The insert is the only step that can fail the caller; the user's course list and the
// course counter are idempotent and may be retried.
type enrollmentLedger struct {
	enrollmentRepo EnrollmentRepository
	userRepo       UserRepository
	courseRepo     CourseRepository
	notifier       Notifier
	logger         *zap.Logger
	now            func() time.Time
}

func (l *enrollmentLedger) enroll(ctx context.Context, user *models.User, course *models.Course, amount decimal.Decimal, method models.PaymentMethod) (*models.Enrollment, error) {
	now := l.now()
	enrollment := &models.Enrollment{
		UserID:            user.ID,
		CourseID:          course.ID,
		CourseTitle:       course.Title,
		PaymentStatus:     models.PaymentStatusCompleted,
		PaymentAmount:     amount,
		PaymentMethod:     method,
		PaymentDate:       &now,
		CompletedLectures: models.StringList{},
		LastAccessedAt:    now,
		IsActive:          true,
		EnrolledAt:        now,
	}
	if err := l.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, err
	}

	if err := l.userRepo.AddEnrolledCourse(ctx, user.ID, course.ID); err != nil {
		l.logger.Warn("failed to add course to user list",
			zap.Int("user_id", user.ID), zap.Int("course_id", course.ID), zap.Error(err))
	}
	if err := l.courseRepo.RecountEnrollments(ctx, course.ID); err != nil {
		l.logger.Warn("failed to recount course enrollments", zap.Int("course_id", course.ID), zap.Error(err))
	}

	l.notifier.EnrollmentConfirmed(ctx, user, enrollment)
	l.logger.Info("user enrolled",
		zap.Int("user_id", user.ID),
		zap.Int("course_id", course.ID),
		zap.String("method", string(method)),
	)
	return enrollment, nil
}

// enrollmentService implements direct enrollment and learning progress
type enrollmentService struct {
	ledger *enrollmentLedger
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(
	enrollmentRepo EnrollmentRepository,
	userRepo UserRepository,
	courseRepo CourseRepository,
	notifier Notifier,
	logger *zap.Logger,
) *enrollmentService {
	return &enrollmentService{
		ledger: &enrollmentLedger{
			enrollmentRepo: enrollmentRepo,
			userRepo:       userRepo,
			courseRepo:     courseRepo,
			notifier:       notifier,
			logger:         logger,
			now:            time.Now,
		},
	}
}

// Enroll registers the actor in a published course without payment
func (s *enrollmentService) Enroll(ctx context.Context, actor *models.User, courseID int) (*models.Enrollment, error) {
	course, err := s.ledger.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, apperrors.Forbidden("course is not published")
	}

	return s.ledger.enroll(ctx, actor, course, decimal.Zero, models.PaymentMethodFree)
}

// GetMy lists the actor's enrollments
func (s *enrollmentService) GetMy(ctx context.Context, actor *models.User) ([]models.Enrollment, error) {
	return s.ledger.enrollmentRepo.GetByUser(ctx, actor.ID)
}

// CompleteLecture marks a lecture as completed and updates the progress
func (s *enrollmentService) CompleteLecture(ctx context.Context, actor *models.User, courseID int, lectureID string) (*models.Enrollment, error) {
	enrollment, err := s.getEnrollment(ctx, actor.ID, courseID)
	if err != nil {
		return nil, err
	}

	course, err := s.ledger.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.HasLecture(lectureID) {
		return nil, apperrors.NotFound("lecture not found")
	}

	enrollment.MarkLectureCompleted(lectureID, course, s.ledger.now())
	if err := s.ledger.enrollmentRepo.UpdateProgress(ctx, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Review rates a course the actor is enrolled in and refreshes the course rating
func (s *enrollmentService) Review(ctx context.Context, actor *models.User, courseID int, req *models.ReviewRequest) (*models.Enrollment, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}
	review := strings.TrimSpace(req.Review)
	if len(review) > 1000 {
		return nil, apperrors.Validation("review must not exceed 1000 characters")
	}

	enrollment, err := s.getEnrollment(ctx, actor.ID, courseID)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.enrollmentRepo.UpdateReview(ctx, enrollment.ID, req.Rating, review); err != nil {
		return nil, err
	}
	if err := s.ledger.courseRepo.RecalculateRating(ctx, courseID); err != nil {
		s.ledger.logger.Warn("failed to recalculate course rating", zap.Int("course_id", courseID), zap.Error(err))
	}

	rating := req.Rating
	enrollment.Rating = &rating
	enrollment.Review = review
	return enrollment, nil
}

func (s *enrollmentService) getEnrollment(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	enrollment, err := s.ledger.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFound("you are not enrolled in this course")
	}
	return enrollment, err
}
