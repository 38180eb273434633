package services

import (
	"context"
	"strings"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// CategoryRepository is the interface that wraps methods for categories table data access
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id int) (*models.Category, error)
	GetAll(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id int) error
	// GetMissingIDs returns the ids without a category, in input order
	GetMissingIDs(ctx context.Context, ids []int) ([]int, error)
}

// CategoryCourseRepository is the part of the course store the category service reads
type CategoryCourseRepository interface {
	GetPublishedByCategory(ctx context.Context, categoryID int) ([]models.Course, error)
	CountByCategory(ctx context.Context, categoryID int) (int, error)
}

type categoryService struct {
	repo       CategoryRepository
	courseRepo CategoryCourseRepository
	logger     *zap.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(repo CategoryRepository, courseRepo CategoryCourseRepository, logger *zap.Logger) *categoryService {
	return &categoryService{
		repo:       repo,
		courseRepo: courseRepo,
		logger:     logger,
	}
}

// Create adds a category with a unique name
func (s *categoryService) Create(ctx context.Context, req *models.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		return nil, apperrors.Validation("category name must be at least 2 characters")
	}

	category := &models.Category{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) GetAll(ctx context.Context) ([]models.Category, error) {
	return s.repo.GetAll(ctx)
}

func (s *categoryService) GetByID(ctx context.Context, id int) (*models.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// GetWithCourses returns a category and its published courses
func (s *categoryService) GetWithCourses(ctx context.Context, id int) (*models.CategoryWithCourses, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	courses, err := s.courseRepo.GetPublishedByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []models.Course{}
	}

	return &models.CategoryWithCourses{Category: category, Courses: courses}, nil
}

// Update changes the provided fields of a category
func (s *categoryService) Update(ctx context.Context, id int, req *models.CategoryRequest) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		if len(name) < 2 {
			return nil, apperrors.Validation("category name must be at least 2 characters")
		}
		category.Name = name
	}
	if req.Description != "" {
		category.Description = strings.TrimSpace(req.Description)
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category that no course references
func (s *categoryService) Delete(ctx context.Context, id int) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.courseRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.Conflict("cannot delete category used by %d course(s)", count)
	}

	return s.repo.Delete(ctx, id)
}
