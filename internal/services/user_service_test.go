package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

func TestUserService_Delete(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}

	tests := []struct {
		name         string
		id           int
		repo         *mockUserRepository
		expectedKind apperrors.Kind
		expectError  bool
		removed      []string
	}{
		{
			name:    "success removes avatar",
			id:      5,
			repo:    &mockUserRepository{user: &models.User{ID: 5, Avatar: "/uploads/avatars/5.png"}},
			removed: []string{"/uploads/avatars/5.png"},
		},
		{
			name:         "cannot delete self",
			id:           1,
			repo:         &mockUserRepository{},
			expectError:  true,
			expectedKind: apperrors.KindValidation,
		},
		{
			name:         "not found",
			id:           6,
			repo:         &mockUserRepository{err: apperrors.NotFound("user not found")},
			expectError:  true,
			expectedKind: apperrors.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &mockImageStore{}
			svc := NewUserService(tt.repo, images, zap.NewNop())

			err := svc.Delete(context.Background(), admin, tt.id)

			if tt.expectError {
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				assert.Zero(t, tt.repo.deletedID)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.id, tt.repo.deletedID)
			assert.Equal(t, tt.removed, images.removed)
		})
	}
}

func TestUserService_GetAll(t *testing.T) {
	repo := &mockUserRepository{users: []models.User{{ID: 1}, {ID: 2}}}
	svc := NewUserService(repo, &mockImageStore{}, zap.NewNop())

	users, err := svc.GetAll(context.Background())

	assert.NoError(t, err)
	assert.Len(t, users, 2)

	repo.err = errors.New("db down")
	_, err = svc.GetAll(context.Background())
	assert.Error(t, err)
}
