// Package services holds the business rules of the marketplace.
// Services depend on consumer-side repository interfaces and return apperrors kinds.
package services

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/storage"
	"go.uber.org/zap"
)

// Notifier is the interface that wraps the notification emails sent by services.
// Implementations never fail the caller.
type Notifier interface {
	Welcome(ctx context.Context, user *models.User)
	EnrollmentConfirmed(ctx context.Context, user *models.User, enrollment *models.Enrollment)
	InstructorReviewed(ctx context.Context, app *models.InstructorApplication)
	LeadAcknowledged(ctx context.Context, lead *models.Lead, courseTitle string)
}

// ImageStore is the interface that wraps image persistence
type ImageStore interface {
	// Method Save validates, downsizes and stores an image.
	//
	// "kind" parameter selects the target folder and maximum dimension.
	//
	// It returns the public URL of the stored file.
	Save(ctx context.Context, r io.Reader, filename, contentType string, kind storage.ImageKind) (string, error)
	// Method Remove deletes a previously stored file by its URL.
	Remove(ctx context.Context, url string) error
}

// FileUpload is an uploaded multipart file
type FileUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanManageCourse checks that the actor owns the course or is an admin.
// A course without an instructor can only be a data integrity problem.
func CanManageCourse(actor *models.User, course *models.Course) error {
	if actor == nil {
		return apperrors.Unauthenticated("authentication required")
	}
	if actor.IsAdmin() {
		return nil
	}
	if course.InstructorID == nil {
		return apperrors.DataIntegrity("course %d has no instructor", course.ID)
	}
	if *course.InstructorID != actor.ID {
		return apperrors.Forbidden("you do not have rights to manage this course")
	}
	return nil
}

// removeFile deletes a replaced or orphaned file, logging instead of failing
func removeFile(ctx context.Context, images ImageStore, logger *zap.Logger, url string) {
	if url == "" {
		return
	}
	if err := images.Remove(ctx, url); err != nil {
		logger.Warn("failed to remove file", zap.String("url", url), zap.Error(err))
	}
}
