package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// EnrollmentService is the interface that wraps the learner side of enrollments
type EnrollmentService interface {
	// Method GetMy lists the actor's enrollments.
	GetMy(ctx context.Context, actor *models.User) ([]models.Enrollment, error)
	// Method CompleteLecture marks a lecture as completed and recomputes the progress.
	//
	// If the actor is not enrolled or the lecture does not belong to the course, a NotFound error is returned.
	CompleteLecture(ctx context.Context, actor *models.User, courseID int, lectureID string) (*models.Enrollment, error)
	// Method Review stores a 1-5 rating with an optional review text and refreshes the course rating.
	Review(ctx context.Context, actor *models.User, courseID int, req *models.ReviewRequest) (*models.Enrollment, error)
}

// EnrollmentHandler handles enrollment HTTP requests
type EnrollmentHandler struct {
	BaseHandler
	enrollmentService EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService EnrollmentService, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       BaseHandler{Logger: logger},
		enrollmentService: enrollmentService,
	}
}

// RegisterRoutes registers enrollment routes
func (h *EnrollmentHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/enrollments", func(r chi.Router) {
		r.Use(guards.Auth)
		r.Get("/my", h.GetMy)
		r.Post("/{courseId}/lectures/{lectureId}/complete", h.CompleteLecture)
		r.Put("/{courseId}/review", h.Review)
	})
}

// GetMy handles GET /enrollments/my
// @Summary List my enrollments
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Enrollment
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /enrollments/my [get]
func (h *EnrollmentHandler) GetMy(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.enrollmentService.GetMy(r.Context(), currentUser(r))
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	if enrollments == nil {
		enrollments = []models.Enrollment{}
	}
	h.RespondJSON(w, http.StatusOK, enrollments)
}

// CompleteLecture handles POST /enrollments/{courseId}/lectures/{lectureId}/complete
// @Summary Complete lecture
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param lectureId path string true "Lecture ID"
// @Success 200 {object} models.Enrollment
// @Failure 404 {object} map[string]string "Not enrolled or lecture not found"
// @Router /enrollments/{courseId}/lectures/{lectureId}/complete [post]
func (h *EnrollmentHandler) CompleteLecture(w http.ResponseWriter, r *http.Request) {
	courseID, err := URLParamInt(r, "courseId")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	enrollment, err := h.enrollmentService.CompleteLecture(r.Context(), currentUser(r), courseID, chi.URLParam(r, "lectureId"))
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, enrollment)
}

// Review handles PUT /enrollments/{courseId}/review
// @Summary Review course
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param request body models.ReviewRequest true "Rating and review"
// @Success 200 {object} models.Enrollment
// @Failure 400 {object} map[string]string "Invalid rating"
// @Failure 404 {object} map[string]string "Not enrolled"
// @Router /enrollments/{courseId}/review [put]
func (h *EnrollmentHandler) Review(w http.ResponseWriter, r *http.Request) {
	courseID, err := URLParamInt(r, "courseId")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	var req models.ReviewRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	enrollment, err := h.enrollmentService.Review(r.Context(), currentUser(r), courseID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, enrollment)
}
