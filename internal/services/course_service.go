package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/storage"
	"go.uber.org/zap"
)

// CourseRepository is the interface that wraps methods for courses table data access
type CourseRepository interface {
	// Method Create inserts a course and links its categories in one transaction.
	//
	// If the title is taken, an AlreadyExists error is returned.
	Create(ctx context.Context, course *models.Course) error
	// Method GetByID retrieves a course with its categories.
	//
	// If course with such ID does not exist, a NotFound error is returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// Method Exists checks if a course with such ID exists.
	Exists(ctx context.Context, id int) (bool, error)
	// Method ExistsByTitle checks if a course other than "excludeID" uses the title.
	ExistsByTitle(ctx context.Context, title string, excludeID int) (bool, error)
	// Method GetPublished retrieves published courses matching the filter, newest first.
	GetPublished(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	// Method GetByInstructor retrieves an instructor's courses.
	//
	// "published" parameter filters by publish state when not nil.
	GetByInstructor(ctx context.Context, instructorID int, published *bool) ([]models.Course, error)
	// Method GetAll retrieves every course regardless of publish state.
	GetAll(ctx context.Context) ([]models.Course, error)
	// Method Update persists every editable column and replaces the category links.
	Update(ctx context.Context, course *models.Course) error
	// Method UpdateSections persists the sections aggregate and its totals in one statement.
	UpdateSections(ctx context.Context, course *models.Course) error
	// Method SetPublished sets the publish flag.
	SetPublished(ctx context.Context, id int, published bool) error
	// Method Delete removes a course. Enrollments are kept.
	Delete(ctx context.Context, id int) error
	// Method RecountEnrollments recomputes enrollment_count from the enrollments table.
	RecountEnrollments(ctx context.Context, courseID int) error
	// Method RecalculateRating recomputes rating and review_count from enrollment reviews.
	RecalculateRating(ctx context.Context, courseID int) error
}

// courseService implements course authorship and catalog reads
type courseService struct {
	repo         CourseRepository
	categoryRepo CategoryRepository
	images       ImageStore
	logger       *zap.Logger
	now          func() time.Time
}

// NewCourseService creates a new course service
func NewCourseService(repo CourseRepository, categoryRepo CategoryRepository, images ImageStore, logger *zap.Logger) *courseService {
	return &courseService{
		repo:         repo,
		categoryRepo: categoryRepo,
		images:       images,
		logger:       logger,
		now:          time.Now,
	}
}

// Create adds an unpublished course owned by the actor
func (s *courseService) Create(ctx context.Context, actor *models.User, req *models.CreateCourseRequest, cover *FileUpload) (*models.Course, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.ShortDescription = strings.TrimSpace(req.ShortDescription)

	if err := validateCourseFields(req.Title, req.Description, req.ShortDescription, req.Price, req.DiscountPercentage); err != nil {
		return nil, err
	}
	if len(req.Categories) == 0 {
		return nil, apperrors.Validation("at least one category is required")
	}
	level := req.Level
	if level == "" {
		level = models.LevelBeginner
	}
	if !level.IsValid() {
		return nil, apperrors.Validation("level must be Beginner, Intermediate or Advanced")
	}
	if cover == nil {
		return nil, apperrors.Validation("cover image is required")
	}
	if _, err := storage.ValidateImage(cover.Filename, cover.ContentType, cover.Size); err != nil {
		return nil, err
	}

	if err := s.checkCategories(ctx, req.Categories); err != nil {
		return nil, err
	}
	if err := s.checkTitle(ctx, req.Title, 0); err != nil {
		return nil, err
	}

	coverURL, err := s.images.Save(ctx, cover.Reader, cover.Filename, cover.ContentType, storage.CoverImage)
	if err != nil {
		return nil, err
	}

	instructorID := actor.ID
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = "English"
	}
	course := &models.Course{
		Title:               req.Title,
		Description:         req.Description,
		ShortDescription:    req.ShortDescription,
		InstructorID:        &instructorID,
		InstructorName:      actor.Name,
		Categories:          categoryRefs(req.Categories),
		Price:               req.Price,
		DiscountPercentage:  req.DiscountPercentage,
		DiscountEndDate:     req.DiscountEndDate,
		CoverImage:          coverURL,
		IsPublished:         false,
		Level:               level,
		Language:            language,
		Tags:                req.Tags,
		Requirements:        req.Requirements,
		LearningOutcomes:    req.LearningOutcomes,
		CertificateIncluded: req.CertificateIncluded,
		Sections:            models.Sections{},
	}
	course.RecalculateTotals()

	if err := s.repo.Create(ctx, course); err != nil {
		removeFile(ctx, s.images, s.logger, coverURL)
		return nil, err
	}

	course.DiscountedPrice = course.CalculateDiscountedPrice(s.now())
	s.logger.Info("course created", zap.Int("course_id", course.ID), zap.Int("instructor_id", actor.ID))
	return course, nil
}

// GetPublished lists published courses
func (s *courseService) GetPublished(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	if filter.Level != nil && !filter.Level.IsValid() {
		return nil, apperrors.Validation("invalid level filter")
	}
	courses, err := s.repo.GetPublished(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.withPrices(courses), nil
}

// GetByID returns a course. Drafts are visible to their owner and admins only.
func (s *courseService) GetByID(ctx context.Context, actor *models.User, id int) (*models.Course, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !course.IsPublished {
		if actor == nil {
			return nil, apperrors.Forbidden("course is not published")
		}
		if err := CanManageCourse(actor, course); err != nil {
			if errors.Is(err, apperrors.ErrForbidden) {
				return nil, apperrors.Forbidden("course is not published")
			}
			return nil, err
		}
	}

	course.DiscountedPrice = course.CalculateDiscountedPrice(s.now())
	return course, nil
}

// GetMy lists the actor's own courses. "status" is published, draft or empty for all.
func (s *courseService) GetMy(ctx context.Context, actor *models.User, status string) ([]models.Course, error) {
	var published *bool
	switch status {
	case "":
	case "published":
		published = boolPtr(true)
	case "draft":
		published = boolPtr(false)
	default:
		return nil, apperrors.Validation("status must be published or draft")
	}

	courses, err := s.repo.GetByInstructor(ctx, actor.ID, published)
	if err != nil {
		return nil, err
	}
	return s.withPrices(courses), nil
}

// GetAll lists every course for admins
func (s *courseService) GetAll(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.withPrices(courses), nil
}

// Update merges the provided fields into a course. A new cover replaces the old file.
func (s *courseService) Update(ctx context.Context, actor *models.User, id int, req *models.UpdateCourseRequest, cover *FileUpload) (*models.Course, error) {
	course, err := s.getManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		course.Description = strings.TrimSpace(*req.Description)
	}
	if req.ShortDescription != nil {
		course.ShortDescription = strings.TrimSpace(*req.ShortDescription)
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.DiscountPercentage != nil {
		course.DiscountPercentage = *req.DiscountPercentage
	}
	if req.DiscountEndDate != nil {
		course.DiscountEndDate = req.DiscountEndDate
	}
	if req.Level != nil {
		if !req.Level.IsValid() {
			return nil, apperrors.Validation("level must be Beginner, Intermediate or Advanced")
		}
		course.Level = *req.Level
	}
	if req.Language != nil {
		course.Language = strings.TrimSpace(*req.Language)
	}
	if req.Tags != nil {
		course.Tags = req.Tags
	}
	if req.Requirements != nil {
		course.Requirements = req.Requirements
	}
	if req.LearningOutcomes != nil {
		course.LearningOutcomes = req.LearningOutcomes
	}
	if req.CertificateIncluded != nil {
		course.CertificateIncluded = *req.CertificateIncluded
	}
	if req.IsFeatured != nil {
		if !actor.IsAdmin() {
			return nil, apperrors.Forbidden("only admins can feature courses")
		}
		course.IsFeatured = *req.IsFeatured
	}

	if err := validateCourseFields(course.Title, course.Description, course.ShortDescription, course.Price, course.DiscountPercentage); err != nil {
		return nil, err
	}

	if req.Categories != nil {
		if err := s.checkCategories(ctx, req.Categories); err != nil {
			return nil, err
		}
		course.Categories = categoryRefs(req.Categories)
	}
	if req.Title != nil {
		if err := s.checkTitle(ctx, course.Title, course.ID); err != nil {
			return nil, err
		}
	}

	oldCover := ""
	if cover != nil {
		if _, err := storage.ValidateImage(cover.Filename, cover.ContentType, cover.Size); err != nil {
			return nil, err
		}
		url, err := s.images.Save(ctx, cover.Reader, cover.Filename, cover.ContentType, storage.CoverImage)
		if err != nil {
			return nil, err
		}
		oldCover, course.CoverImage = course.CoverImage, url
	}

	course.RecalculateTotals()
	if err := s.repo.Update(ctx, course); err != nil {
		if cover != nil {
			removeFile(ctx, s.images, s.logger, course.CoverImage)
		}
		return nil, err
	}

	removeFile(ctx, s.images, s.logger, oldCover)

	course.DiscountedPrice = course.CalculateDiscountedPrice(s.now())
	return course, nil
}

// Delete removes a course and its cover file
func (s *courseService) Delete(ctx context.Context, actor *models.User, id int) error {
	course, err := s.getManaged(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	removeFile(ctx, s.images, s.logger, course.CoverImage)
	s.logger.Info("course deleted", zap.Int("course_id", id), zap.Int("actor_id", actor.ID))
	return nil
}

// TogglePublish flips the publish flag of a course
func (s *courseService) TogglePublish(ctx context.Context, actor *models.User, id int) (*models.Course, error) {
	course, err := s.getManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	course.IsPublished = !course.IsPublished
	if err := s.repo.SetPublished(ctx, id, course.IsPublished); err != nil {
		return nil, err
	}

	course.DiscountedPrice = course.CalculateDiscountedPrice(s.now())
	return course, nil
}

// getManaged loads a course the actor is allowed to change
func (s *courseService) getManaged(ctx context.Context, actor *models.User, id int) (*models.Course, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanManageCourse(actor, course); err != nil {
		if errors.Is(err, apperrors.ErrDataIntegrity) {
			s.logger.Error("course without instructor", zap.Int("course_id", id))
		}
		return nil, err
	}
	return course, nil
}

func (s *courseService) checkCategories(ctx context.Context, ids []int) error {
	missing, err := s.categoryRepo.GetMissingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperrors.Validation("category %d does not exist", missing[0])
	}
	return nil
}

func (s *courseService) checkTitle(ctx context.Context, title string, excludeID int) error {
	exists, err := s.repo.ExistsByTitle(ctx, title, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.AlreadyExists("course with this title already exists")
	}
	return nil
}

func (s *courseService) withPrices(courses []models.Course) []models.Course {
	if courses == nil {
		return []models.Course{}
	}
	now := s.now()
	for i := range courses {
		courses[i].DiscountedPrice = courses[i].CalculateDiscountedPrice(now)
	}
	return courses
}

func validateCourseFields(title, description, shortDescription string, price decimal.Decimal, discount int) error {
	if len(title) < 3 {
		return apperrors.Validation("title must be at least 3 characters")
	}
	if len(description) < 10 {
		return apperrors.Validation("description must be at least 10 characters")
	}
	if len(shortDescription) > 200 {
		return apperrors.Validation("short description must not exceed 200 characters")
	}
	if price.IsNegative() {
		return apperrors.Validation("price must not be negative")
	}
	if discount < 0 || discount > 100 {
		return apperrors.Validation("discount percentage must be between 0 and 100")
	}
	return nil
}

func categoryRefs(ids []int) []models.CategoryRef {
	refs := make([]models.CategoryRef, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, models.CategoryRef{ID: id})
	}
	return refs
}

func boolPtr(b bool) *bool {
	return &b
}
