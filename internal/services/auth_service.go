package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/auth/service"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user, its ID is set on success.
	//
	// If the email is taken, an AlreadyExists error is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves a user by ID without the password hash.
	//
	// If user with such ID does not exist, a NotFound error is returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method GetByEmail retrieves a user together with the password hash.
	//
	// If user with such email does not exist, a NotFound error is returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method GetAll retrieves all users, newest first.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method GetEnrolledCourseIDs retrieves the ids of the courses on the user's list.
	GetEnrolledCourseIDs(ctx context.Context, userID int) ([]int, error)
	// Method AddEnrolledCourse adds a course to the user's list. Adding it twice is not an error.
	AddEnrolledCourse(ctx context.Context, userID, courseID int) error
	// Method UpdateAvatar sets the avatar URL of a user.
	UpdateAvatar(ctx context.Context, userID int, avatar string) error
	// Method Delete removes a user.
	//
	// If user with such ID does not exist, a NotFound error is returned.
	Delete(ctx context.Context, id int) error
}

// UserTokenRepository is the interface that wraps methods for user_tokens table data access
type UserTokenRepository interface {
	// Method Create stores a refresh token.
	Create(ctx context.Context, userToken *models.UserToken) error
	// Method GetByToken retrieves a stored refresh token.
	//
	// If the token is unknown, an Unauthenticated error is returned together with "nil" value.
	GetByToken(ctx context.Context, token string) (*models.UserToken, error)
	// Method UpdateToken replaces a refresh token with its rotated value.
	UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error
	// Method DeleteByToken removes a refresh token. Removing an unknown token is not an error.
	DeleteByToken(ctx context.Context, token string) error
}

// authService implements AuthService
type authService struct {
	userRepo       UserRepository
	userTokenRepo  UserTokenRepository
	tokenGenerator *service.TokenGenerator
	images         ImageStore
	notifier       Notifier
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	userTokenRepo UserTokenRepository,
	tokenGenerator *service.TokenGenerator,
	images ImageStore,
	notifier Notifier,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		userTokenRepo:  userTokenRepo,
		tokenGenerator: tokenGenerator,
		images:         images,
		notifier:       notifier,
		logger:         logger,
	}
}

// Register creates a new account and signs it in.
// Only Student and Instructor can be chosen at registration, Student is the default.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	if len(name) < 2 {
		return nil, apperrors.Validation("name must be at least 2 characters")
	}
	if !emailRegex.MatchString(email) {
		return nil, apperrors.Validation("invalid email format")
	}
	if len(req.Password) < 6 {
		return nil, apperrors.Validation("password must be at least 6 characters")
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if role != models.RoleStudent && role != models.RoleInstructor {
		return nil, apperrors.Validation("role must be Student or Instructor")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.AlreadyExists("user with this email already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.notifier.Welcome(ctx, user)

	return s.signIn(ctx, user)
}

// Login authenticates a user by email and password
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthenticated("invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthenticated("invalid credentials")
	}

	return s.signIn(ctx, user)
}

// Refresh rotates a refresh token and issues a new access token
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperrors.Validation("refresh token is required")
	}

	if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
		// expired tokens are dropped so they cannot pile up
		if delErr := s.userTokenRepo.DeleteByToken(ctx, refreshToken); delErr != nil {
			s.logger.Warn("failed to delete invalid refresh token", zap.Error(delErr))
		}
		return nil, apperrors.Unauthenticated("invalid or expired refresh token")
	}

	userToken, err := s.userTokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userToken.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthenticated("user no longer exists")
	}
	if err != nil {
		return nil, err
	}

	accessToken, newRefreshToken, err := s.tokenGenerator.GenerateTokens(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userTokenRepo.UpdateToken(ctx, refreshToken, newRefreshToken, user.ID); err != nil {
		return nil, err
	}

	return &models.AuthResponse{User: user, Token: accessToken, RefreshToken: newRefreshToken}, nil
}

// Logout revokes a refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return apperrors.Validation("refresh token is required")
	}
	return s.userTokenRepo.DeleteByToken(ctx, refreshToken)
}

// Me returns the current user with the enrolled course list
func (s *authService) Me(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	courseIDs, err := s.userRepo.GetEnrolledCourseIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.EnrolledCourses = courseIDs

	return user, nil
}

// UpdateAvatar stores a new avatar and removes the previous file
func (s *authService) UpdateAvatar(ctx context.Context, user *models.User, file *FileUpload) (*models.User, error) {
	if file == nil {
		return nil, apperrors.Validation("avatar file is required")
	}
	if _, err := storage.ValidateImage(file.Filename, file.ContentType, file.Size); err != nil {
		return nil, err
	}

	url, err := s.images.Save(ctx, file.Reader, file.Filename, file.ContentType, storage.AvatarImage)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateAvatar(ctx, user.ID, url); err != nil {
		removeFile(ctx, s.images, s.logger, url)
		return nil, err
	}

	removeFile(ctx, s.images, s.logger, user.Avatar)

	updated := *user
	updated.Avatar = url
	return &updated, nil
}

// signIn issues a token pair and stores the refresh token
func (s *authService) signIn(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	accessToken, refreshToken, err := s.tokenGenerator.GenerateTokens(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userTokenRepo.Create(ctx, &models.UserToken{UserID: user.ID, Token: refreshToken}); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	user.PasswordHash = ""
	return &models.AuthResponse{User: user, Token: accessToken, RefreshToken: refreshToken}, nil
}
