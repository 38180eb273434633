package services

import (
	"context"
	"strings"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// InstructorRepository is the interface that wraps methods for instructor applications and profiles
type InstructorRepository interface {
	// Method CreateApplication inserts a pending application.
	//
	// A user can hold only one application, a second one fails with an AlreadyExists error.
	CreateApplication(ctx context.Context, app *models.InstructorApplication) error
	// Method ExistsApplicationForUser checks if the user already applied.
	ExistsApplicationForUser(ctx context.Context, userID int) (bool, error)
	// Method GetApplicationByID retrieves an application with the applicant's name and email.
	GetApplicationByID(ctx context.Context, id int) (*models.InstructorApplication, error)
	// Method GetApplicationByUser retrieves the application of a user.
	GetApplicationByUser(ctx context.Context, userID int) (*models.InstructorApplication, error)
	// Method GetApplications retrieves all applications, newest first.
	GetApplications(ctx context.Context) ([]models.InstructorApplication, error)
	// Method Approve sets the status, promotes the user and creates the profile in one transaction.
	//
	// If the application is no longer pending, an InvalidState error is returned.
	Approve(ctx context.Context, app *models.InstructorApplication) error
	// Method Reject sets the status of a pending application.
	Reject(ctx context.Context, app *models.InstructorApplication) error
	// Method GetProfiles retrieves all instructor profiles.
	GetProfiles(ctx context.Context) ([]models.InstructorProfile, error)
	// Method GetProfileByID retrieves a profile by ID.
	GetProfileByID(ctx context.Context, id int) (*models.InstructorProfile, error)
	// Method GetProfileByUser retrieves the profile of a user.
	GetProfileByUser(ctx context.Context, userID int) (*models.InstructorProfile, error)
	// Method UpdateProfile persists profile fields.
	UpdateProfile(ctx context.Context, profile *models.InstructorProfile) error
	// Method DeleteProfile removes a profile and demotes the instructor in one transaction.
	DeleteProfile(ctx context.Context, profile *models.InstructorProfile) error
}

type instructorService struct {
	repo     InstructorRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewInstructorService creates a new instructor service
func NewInstructorService(repo InstructorRepository, notifier Notifier, logger *zap.Logger) *instructorService {
	return &instructorService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// Apply submits the actor's instructor application
func (s *instructorService) Apply(ctx context.Context, actor *models.User, req *models.ApplyInstructorRequest) (*models.InstructorApplication, error) {
	if actor.Role != models.RoleStudent {
		return nil, apperrors.InvalidState("you already have instructor access")
	}

	bio := strings.TrimSpace(req.Bio)
	if bio == "" {
		return nil, apperrors.Validation("bio is required")
	}
	expertise := cleanList(req.Expertise)
	if len(expertise) == 0 {
		return nil, apperrors.Validation("at least one area of expertise is required")
	}

	exists, err := s.repo.ExistsApplicationForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.AlreadyExists("you have already submitted an application")
	}

	app := &models.InstructorApplication{
		UserID:    actor.ID,
		UserName:  actor.Name,
		UserEmail: actor.Email,
		Status:    models.ApplicationStatusPending,
		Bio:       bio,
		Expertise: expertise,
	}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// GetMyApplication returns the actor's application
func (s *instructorService) GetMyApplication(ctx context.Context, actor *models.User) (*models.InstructorApplication, error) {
	return s.repo.GetApplicationByUser(ctx, actor.ID)
}

func (s *instructorService) GetApplications(ctx context.Context) ([]models.InstructorApplication, error) {
	return s.repo.GetApplications(ctx)
}

// Review approves or rejects a pending application
func (s *instructorService) Review(ctx context.Context, actor *models.User, id int, status models.ApplicationStatus) (*models.InstructorApplication, error) {
	if status != models.ApplicationStatusApproved && status != models.ApplicationStatusRejected {
		return nil, apperrors.Validation("status must be approved or rejected")
	}

	app, err := s.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, apperrors.InvalidState("application has already been reviewed")
	}

	if status == models.ApplicationStatusApproved {
		err = s.repo.Approve(ctx, app)
	} else {
		err = s.repo.Reject(ctx, app)
	}
	if err != nil {
		return nil, err
	}

	s.notifier.InstructorReviewed(ctx, app)
	s.logger.Info("instructor application reviewed",
		zap.Int("application_id", app.ID),
		zap.String("status", string(app.Status)),
		zap.Int("admin_id", actor.ID),
	)
	return app, nil
}

func (s *instructorService) GetProfiles(ctx context.Context) ([]models.InstructorProfile, error) {
	return s.repo.GetProfiles(ctx)
}

// UpdateMyProfile changes the provided fields of the actor's profile
func (s *instructorService) UpdateMyProfile(ctx context.Context, actor *models.User, req *models.UpdateProfileRequest) (*models.InstructorProfile, error) {
	profile, err := s.repo.GetProfileByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if req.Bio != nil {
		profile.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.Expertise != nil {
		profile.Expertise = cleanList(req.Expertise)
	}
	if req.Website != nil {
		profile.Website = strings.TrimSpace(*req.Website)
	}
	if req.Socials != nil {
		profile.Socials = *req.Socials
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes a profile and demotes its instructor. Courses are left untouched.
func (s *instructorService) DeleteProfile(ctx context.Context, actor *models.User, id int) error {
	profile, err := s.repo.GetProfileByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteProfile(ctx, profile); err != nil {
		return err
	}

	s.logger.Info("instructor profile deleted", zap.Int("profile_id", id), zap.Int("user_id", profile.UserID), zap.Int("admin_id", actor.ID))
	return nil
}

func cleanList(values []string) models.StringList {
	cleaned := make(models.StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}
