package services

import (
	"context"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// userService implements the admin user management operations
type userService struct {
	userRepo UserRepository
	images   ImageStore
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository, images ImageStore, logger *zap.Logger) *userService {
	return &userService{
		userRepo: userRepo,
		images:   images,
		logger:   logger,
	}
}

// GetAll returns every user
func (s *userService) GetAll(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAll(ctx)
}

// Delete removes a user account. Enrollments and authored courses are kept.
func (s *userService) Delete(ctx context.Context, actor *models.User, id int) error {
	if actor.ID == id {
		return apperrors.Validation("you cannot delete your own account")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	removeFile(ctx, s.images, s.logger, user.Avatar)
	s.logger.Info("user deleted", zap.Int("user_id", id), zap.Int("admin_id", actor.ID))
	return nil
}
