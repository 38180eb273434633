package services

import (
	"context"
	"strings"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// CampaignRepository is the interface that wraps methods for campaigns table data access
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id int) (*models.Campaign, error)
	// GetActive returns active campaigns with featured course titles resolved
	GetActive(ctx context.Context) ([]models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id int) error
}

// CourseChecker reports whether a course exists
type CourseChecker interface {
	Exists(ctx context.Context, id int) (bool, error)
}

type campaignService struct {
	repo    CampaignRepository
	courses CourseChecker
	logger  *zap.Logger
}

// NewCampaignService creates a new campaign service
func NewCampaignService(repo CampaignRepository, courses CourseChecker, logger *zap.Logger) *campaignService {
	return &campaignService{
		repo:    repo,
		courses: courses,
		logger:  logger,
	}
}

// Create adds a campaign
func (s *campaignService) Create(ctx context.Context, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	if req.StartDate == nil || req.EndDate == nil {
		return nil, apperrors.Validation("start date and end date are required")
	}

	campaign := &models.Campaign{
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		StartDate:       *req.StartDate,
		EndDate:         *req.EndDate,
		FeaturedCourses: courseRefs(req.FeaturedCourses),
	}
	if req.IsActive != nil {
		campaign.IsActive = *req.IsActive
	}

	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}
	if err := s.checkCourses(ctx, req.FeaturedCourses); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// GetActive lists active campaigns
func (s *campaignService) GetActive(ctx context.Context) ([]models.Campaign, error) {
	return s.repo.GetActive(ctx)
}

func (s *campaignService) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies the provided fields to a campaign
func (s *campaignService) Update(ctx context.Context, id int, req *models.UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		campaign.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		campaign.Description = strings.TrimSpace(*req.Description)
	}
	if req.StartDate != nil {
		campaign.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		campaign.EndDate = *req.EndDate
	}
	if req.IsActive != nil {
		campaign.IsActive = *req.IsActive
	}

	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}
	if req.FeaturedCourses != nil {
		if err := s.checkCourses(ctx, req.FeaturedCourses); err != nil {
			return nil, err
		}
		campaign.FeaturedCourses = courseRefs(req.FeaturedCourses)
	}

	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *campaignService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// checkCourses verifies featured courses in order and reports the first missing one
func (s *campaignService) checkCourses(ctx context.Context, ids []int) error {
	for _, id := range ids {
		exists, err := s.courses.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("course %d not found", id)
		}
	}
	return nil
}

func validateCampaign(campaign *models.Campaign) error {
	if len(campaign.Title) < 3 {
		return apperrors.Validation("title must be at least 3 characters")
	}
	if len(campaign.Description) < 10 {
		return apperrors.Validation("description must be at least 10 characters")
	}
	if !campaign.EndDate.After(campaign.StartDate) {
		return apperrors.Validation("end date must be after start date")
	}
	return nil
}

func courseRefs(ids []int) []models.CourseRef {
	refs := make([]models.CourseRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, models.CourseRef{ID: id})
	}
	return refs
}
