package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// InstructorService is the interface that wraps the instructor application workflow and profiles
type InstructorService interface {
	// Method Apply submits the actor's instructor application.
	//
	// If the actor already has an application, an AlreadyExists error is returned.
	Apply(ctx context.Context, actor *models.User, req *models.ApplyInstructorRequest) (*models.InstructorApplication, error)
	// Method GetMyApplication returns the actor's application or a NotFound error.
	GetMyApplication(ctx context.Context, actor *models.User) (*models.InstructorApplication, error)
	// Method GetApplications returns every application, newest first.
	GetApplications(ctx context.Context) ([]models.InstructorApplication, error)
	// Method Review approves or rejects a pending application.
	//
	// Approval promotes the applicant to Instructor and creates the profile in one transaction.
	Review(ctx context.Context, actor *models.User, id int, status models.ApplicationStatus) (*models.InstructorApplication, error)
	// Method GetProfiles returns every instructor profile.
	GetProfiles(ctx context.Context) ([]models.InstructorProfile, error)
	// Method UpdateMyProfile updates the actor's profile or returns a NotFound error.
	UpdateMyProfile(ctx context.Context, actor *models.User, req *models.UpdateProfileRequest) (*models.InstructorProfile, error)
	// Method DeleteProfile removes a profile and demotes its user to Student.
	DeleteProfile(ctx context.Context, actor *models.User, id int) error
}

// InstructorHandler handles instructor application and profile requests
type InstructorHandler struct {
	BaseHandler
	instructorService InstructorService
}

// NewInstructorHandler creates a new instructor handler
func NewInstructorHandler(instructorService InstructorService, logger *zap.Logger) *InstructorHandler {
	return &InstructorHandler{
		BaseHandler:       BaseHandler{Logger: logger},
		instructorService: instructorService,
	}
}

// RegisterRoutes registers instructor routes
func (h *InstructorHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/instructors", func(r chi.Router) {
		r.Get("/profiles", h.GetProfiles)

		r.Group(func(r chi.Router) {
			r.Use(guards.Auth)
			r.Post("/apply", h.Apply)
			r.Get("/applications/my", h.GetMyApplication)
		})

		r.With(guards.Roles(models.RoleInstructor)...).Put("/profiles/me", h.UpdateMyProfile)

		r.Group(func(r chi.Router) {
			r.Use(guards.Admin()...)
			r.Get("/applications", h.GetApplications)
			r.Put("/applications/{id}", h.Review)
			r.Delete("/profiles/{id}", h.DeleteProfile)
		})
	})
}

// Apply handles POST /instructors/apply
// @Summary Apply as instructor
// @Tags instructors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ApplyInstructorRequest true "Bio and expertise"
// @Success 201 {object} models.InstructorApplication
// @Failure 400 {object} map[string]string "Invalid request or application exists"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /instructors/apply [post]
func (h *InstructorHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req models.ApplyInstructorRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	app, err := h.instructorService.Apply(r.Context(), currentUser(r), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, app)
}

// GetMyApplication handles GET /instructors/applications/my
// @Summary Get my application
// @Tags instructors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.InstructorApplication
// @Failure 404 {object} map[string]string "No application"
// @Router /instructors/applications/my [get]
func (h *InstructorHandler) GetMyApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.instructorService.GetMyApplication(r.Context(), currentUser(r))
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, app)
}

// GetApplications handles GET /instructors/applications
// @Summary List applications
// @Tags instructors
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.InstructorApplication
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /instructors/applications [get]
func (h *InstructorHandler) GetApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.instructorService.GetApplications(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	if apps == nil {
		apps = []models.InstructorApplication{}
	}
	h.RespondJSON(w, http.StatusOK, apps)
}

// Review handles PUT /instructors/applications/{id}
// @Summary Review application
// @Description Approve or reject a pending application. Approval promotes the user and creates the profile.
// @Tags instructors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body models.ReviewApplicationRequest true "approved or rejected"
// @Success 200 {object} models.InstructorApplication
// @Failure 400 {object} map[string]string "Invalid status or application already reviewed"
// @Failure 404 {object} map[string]string "Application not found"
// @Router /instructors/applications/{id} [put]
func (h *InstructorHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	var req models.ReviewApplicationRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	app, err := h.instructorService.Review(r.Context(), currentUser(r), id, req.Status)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, app)
}

// GetProfiles handles GET /instructors/profiles
// @Summary List instructor profiles
// @Tags instructors
// @Produce json
// @Success 200 {array} models.InstructorProfile
// @Router /instructors/profiles [get]
func (h *InstructorHandler) GetProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.instructorService.GetProfiles(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	if profiles == nil {
		profiles = []models.InstructorProfile{}
	}
	h.RespondJSON(w, http.StatusOK, profiles)
}

// UpdateMyProfile handles PUT /instructors/profiles/me
// @Summary Update my instructor profile
// @Tags instructors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.InstructorProfile
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /instructors/profiles/me [put]
func (h *InstructorHandler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	profile, err := h.instructorService.UpdateMyProfile(r.Context(), currentUser(r), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, profile)
}

// DeleteProfile handles DELETE /instructors/profiles/{id}
// @Summary Delete instructor profile
// @Description Delete a profile and demote its user to Student. Courses are kept.
// @Tags instructors
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Success 200 {object} map[string]string "Profile deleted"
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /instructors/profiles/{id} [delete]
func (h *InstructorHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	if err := h.instructorService.DeleteProfile(r.Context(), currentUser(r), id); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondMessage(w, http.StatusOK, "instructor profile deleted successfully")
}
