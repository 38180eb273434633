package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// LeadRepository is the interface that wraps methods for leads table data access
type LeadRepository interface {
	// GetByEmail returns a NotFound error for an unknown email
	GetByEmail(ctx context.Context, email string) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	UpdateContact(ctx context.Context, lead *models.Lead) error
}

// ApplicationRepository is the interface that wraps methods for applications table data access
type ApplicationRepository interface {
	// Create stores the application with the entries of app.StatusHistory in one transaction
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id int) (*models.Application, error)
	GetAll(ctx context.Context) ([]models.Application, error)
	// UpdateStatus sets the status and optional notes and appends a history entry in one transaction
	UpdateStatus(ctx context.Context, id int, status models.LeadStatus, notes *string, changedBy int, now time.Time) error
}

// applicationService implements the lead intake pipeline
type applicationService struct {
	leadRepo        LeadRepository
	applicationRepo ApplicationRepository
	courseRepo      CourseRepository
	notifier        Notifier
	logger          *zap.Logger
	now             func() time.Time
}

// NewApplicationService creates a new application service
func NewApplicationService(
	leadRepo LeadRepository,
	applicationRepo ApplicationRepository,
	courseRepo CourseRepository,
	notifier Notifier,
	logger *zap.Logger,
) *applicationService {
	return &applicationService{
		leadRepo:        leadRepo,
		applicationRepo: applicationRepo,
		courseRepo:      courseRepo,
		notifier:        notifier,
		logger:          logger,
		now:             time.Now,
	}
}

// Submit records a prospective student's interest in a course
func (s *applicationService) Submit(ctx context.Context, req *models.SubmitApplicationRequest) (*models.Application, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	phone := strings.TrimSpace(req.Phone)

	if len(name) < 2 {
		return nil, apperrors.Validation("name must be at least 2 characters")
	}
	if !emailRegex.MatchString(email) {
		return nil, apperrors.Validation("invalid email format")
	}
	if req.CourseID <= 0 {
		return nil, apperrors.Validation("course id is required")
	}

	course, err := s.courseRepo.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	lead, err := s.findOrCreateLead(ctx, name, email, phone)
	if err != nil {
		return nil, err
	}

	now := s.now()
	app := &models.Application{
		LeadID:      lead.ID,
		LeadName:    lead.Name,
		LeadEmail:   lead.Email,
		CourseID:    course.ID,
		CourseTitle: course.Title,
		Status:      models.LeadStatusSubmitted,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.LeadStatusSubmitted, ChangedAt: now},
		},
		CreatedAt: now,
	}
	if err := s.applicationRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.notifier.LeadAcknowledged(ctx, lead, course.Title)
	return app, nil
}

func (s *applicationService) GetAll(ctx context.Context) ([]models.Application, error) {
	return s.applicationRepo.GetAll(ctx)
}

// UpdateStatus moves an application to a new status and records who did it
func (s *applicationService) UpdateStatus(ctx context.Context, actor *models.User, id int, req *models.UpdateApplicationStatusRequest) (*models.Application, error) {
	if !req.Status.IsValid() {
		return nil, apperrors.Validation("status must be one of Submitted, Reviewed, Contacted, Closed")
	}

	if _, err := s.applicationRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	var notes *string
	if trimmed := strings.TrimSpace(req.Notes); trimmed != "" {
		notes = &trimmed
	}

	if err := s.applicationRepo.UpdateStatus(ctx, id, req.Status, notes, actor.ID, s.now()); err != nil {
		return nil, err
	}

	return s.applicationRepo.GetByID(ctx, id)
}

// findOrCreateLead returns the lead for an email, refreshing changed contact details
func (s *applicationService) findOrCreateLead(ctx context.Context, name, email, phone string) (*models.Lead, error) {
	lead, err := s.leadRepo.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		lead = &models.Lead{Name: name, Email: email, Phone: phone}
		if err := s.leadRepo.Create(ctx, lead); err != nil {
			return nil, err
		}
		return lead, nil
	}
	if err != nil {
		return nil, err
	}

	changed := false
	if name != "" && name != lead.Name {
		lead.Name = name
		changed = true
	}
	if phone != "" && phone != lead.Phone {
		lead.Phone = phone
		changed = true
	}
	if changed {
		if err := s.leadRepo.UpdateContact(ctx, lead); err != nil {
			return nil, err
		}
	}
	return lead, nil
}
