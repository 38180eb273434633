package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/services"
	"go.uber.org/zap"
)

// CourseService is the interface that wraps methods for course authorship and catalog reads.
type CourseService interface {
	// Method Create adds an unpublished course owned by the actor.
	//
	// "cover" parameter is the required cover image.
	//
	// If the title is taken an AlreadyExists error is returned, if a category does not exist a Validation error is returned.
	Create(ctx context.Context, actor *models.User, req *models.CreateCourseRequest, cover *services.FileUpload) (*models.Course, error)
	// Method GetPublished lists published courses matching the filter.
	GetPublished(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	// Method GetByID returns a course.
	//
	// "actor" parameter may be nil. Drafts are visible to their owner and admins only, anyone else gets a Forbidden error.
	GetByID(ctx context.Context, actor *models.User, id int) (*models.Course, error)
	// Method GetMy lists the actor's courses. "status" is "published", "draft" or empty.
	GetMy(ctx context.Context, actor *models.User, status string) ([]models.Course, error)
	// Method GetAll lists every course.
	GetAll(ctx context.Context) ([]models.Course, error)
	// Method Update merges the provided fields into the course.
	//
	// "cover" parameter is optional, a new cover replaces the old file.
	Update(ctx context.Context, actor *models.User, id int, req *models.UpdateCourseRequest, cover *services.FileUpload) (*models.Course, error)
	// Method Delete removes the course and its cover file.
	Delete(ctx context.Context, actor *models.User, id int) error
	// Method TogglePublish flips the publish flag.
	TogglePublish(ctx context.Context, actor *models.User, id int) (*models.Course, error)

	// Section and lecture methods return the whole updated course.
	// An unknown section or lecture id is a NotFound error.
	AddSection(ctx context.Context, actor *models.User, courseID int, req *models.SectionRequest) (*models.Course, error)
	UpdateSection(ctx context.Context, actor *models.User, courseID int, sectionID string, req *models.SectionRequest) (*models.Course, error)
	DeleteSection(ctx context.Context, actor *models.User, courseID int, sectionID string) (*models.Course, error)
	AddLecture(ctx context.Context, actor *models.User, courseID int, sectionID string, req *models.LectureRequest) (*models.Course, error)
	UpdateLecture(ctx context.Context, actor *models.User, courseID int, sectionID, lectureID string, req *models.LectureRequest) (*models.Course, error)
	DeleteLecture(ctx context.Context, actor *models.User, courseID int, sectionID, lectureID string) (*models.Course, error)
}

// Enroller wraps the free enrollment into a published course
type Enroller interface {
	// Method Enroll enrolls the actor without payment.
	//
	// If the actor is already enrolled an AlreadyEnrolled error is returned.
	Enroll(ctx context.Context, actor *models.User, courseID int) (*models.Enrollment, error)
}

// CourseHandler handles course HTTP requests
type CourseHandler struct {
	BaseHandler
	courseService CourseService
	enroller      Enroller
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService CourseService, enroller Enroller, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		courseService: courseService,
		enroller:      enroller,
	}
}

// RegisterRoutes registers course routes
func (h *CourseHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/courses", func(r chi.Router) {
		r.With(guards.OptionalAuth).Get("/", h.GetPublished)
		r.With(guards.Roles(models.RoleInstructor, models.RoleAdmin)...).Post("/", h.Create)
		r.With(guards.Roles(models.RoleInstructor, models.RoleAdmin)...).Get("/my", h.GetMy)
		r.With(guards.Admin()...).Get("/admin/all", h.GetAll)

		r.Route("/{id}", func(r chi.Router) {
			r.With(guards.OptionalAuth).Get("/", h.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(guards.Auth)
				r.Put("/", h.Update)
				r.Delete("/", h.Delete)
				r.Put("/toggle-publish", h.TogglePublish)
				r.Post("/enroll", h.Enroll)

				r.Post("/sections", h.AddSection)
				r.Put("/sections/{sectionId}", h.UpdateSection)
				r.Delete("/sections/{sectionId}", h.DeleteSection)
				r.Post("/sections/{sectionId}/lectures", h.AddLecture)
				r.Put("/sections/{sectionId}/lectures/{lectureId}", h.UpdateLecture)
				r.Delete("/sections/{sectionId}/lectures/{lectureId}", h.DeleteLecture)
			})
		})
	})
}

// GetPublished handles GET /courses
// @Summary List published courses
// @Tags courses
// @Produce json
// @Param category query int false "Category ID"
// @Param level query string false "Beginner, Intermediate or Advanced"
// @Param search query string false "Search in title and description"
// @Param page query int false "Page number, starts at 1"
// @Param count query int false "Page size"
// @Success 200 {array} models.Course
// @Failure 400 {object} map[string]string "Invalid filter"
// @Router /courses [get]
func (h *CourseHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCourseFilter(r)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	courses, err := h.courseService.GetPublished(r.Context(), filter)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, courses)
}

// Create handles POST /courses
// @Summary Create course
// @Description Create an unpublished course. Categories may be repeated fields, a comma list or a JSON array.
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param shortDescription formData string false "Short description"
// @Param categories formData string true "Category IDs"
// @Param price formData number true "Price"
// @Param level formData string false "Beginner, Intermediate or Advanced"
// @Param language formData string false "Language"
// @Param cover formData file true "Cover image"
// @Success 201 {object} models.Course
// @Failure 400 {object} map[string]string "Invalid request or title taken"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /courses [post]
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	req, err := createCourseRequestFromForm(r)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	cover, closeCover, err := formFile(r, "cover")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	defer closeCover()

	course, err := h.courseService.Create(r.Context(), currentUser(r), req, cover)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, course)
}

// GetMy handles GET /courses/my
// @Summary List my courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param status query string false "published or draft"
// @Success 200 {array} models.Course
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /courses/my [get]
func (h *CourseHandler) GetMy(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.GetMy(r.Context(), currentUser(r), r.URL.Query().Get("status"))
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, courses)
}

// GetAll handles GET /courses/admin/all
// @Summary List all courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Course
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /courses/admin/all [get]
func (h *CourseHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.GetAll(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, courses)
}

// GetByID handles GET /courses/{id}
// @Summary Get course
// @Description Published courses are public, drafts are visible to their owner and admins.
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 403 {object} map[string]string "Course is not published"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /courses/{id} [get]
func (h *CourseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	course, err := h.courseService.GetByID(r.Context(), currentUser(r), id)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

// Update handles PUT /courses/{id}
// @Summary Update course
// @Description Partial update. Accepts JSON, or multipart when a new cover is uploaded.
// @Tags courses
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body models.UpdateCourseRequest false "Fields to update"
// @Success 200 {object} models.Course
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	var (
		req   *models.UpdateCourseRequest
		cover *services.FileUpload
	)
	if isMultipart(r) {
		if err := parseMultipart(r); err != nil {
			h.RespondServiceError(w, r, err)
			return
		}
		if req, err = updateCourseRequestFromForm(r); err != nil {
			h.RespondServiceError(w, r, err)
			return
		}
		file, closeCover, err := formFile(r, "cover")
		if err != nil {
			h.RespondServiceError(w, r, err)
			return
		}
		defer closeCover()
		cover = file
	} else {
		req = &models.UpdateCourseRequest{}
		if err := h.DecodeJSON(r, req); err != nil {
			h.RespondServiceError(w, r, err)
			return
		}
	}

	course, err := h.courseService.Update(r.Context(), currentUser(r), id, req, cover)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

// Delete handles DELETE /courses/{id}
// @Summary Delete course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} map[string]string "Course deleted"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	if err := h.courseService.Delete(r.Context(), currentUser(r), id); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondMessage(w, http.StatusOK, "course deleted successfully")
}

// TogglePublish handles PUT /courses/{id}/toggle-publish
// @Summary Toggle publish state
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /courses/{id}/toggle-publish [put]
func (h *CourseHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	course, err := h.courseService.TogglePublish(r.Context(), currentUser(r), id)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

// Enroll handles POST /courses/{id}/enroll
// @Summary Enroll for free
// @Description Enroll the current user into a published course without payment.
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 201 {object} models.Enrollment
// @Failure 400 {object} map[string]string "Already enrolled"
// @Failure 403 {object} map[string]string "Course is not published"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	enrollment, err := h.enroller.Enroll(r.Context(), currentUser(r), id)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, enrollment)
}

// AddSection handles POST /courses/{id}/sections
// @Summary Add section
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body models.SectionRequest true "Section"
// @Success 201 {object} models.Course
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /courses/{id}/sections [post]
func (h *CourseHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	var req models.SectionRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	course, err := h.courseService.AddSection(r.Context(), currentUser(r), id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, course)
}

// UpdateSection handles PUT /courses/{id}/sections/{sectionId}
// @Summary Update section
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param sectionId path string true "Section ID"
// @Param request body models.SectionRequest true "Section fields"
// @Success 200 {object} models.Course
// @Failure 404 {object} map[string]string "Section not found"
// @Router /courses/{id}/sections/{sectionId} [put]
func (h *CourseHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	var req models.SectionRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	course, err := h.courseService.UpdateSection(r.Context(), currentUser(r), id, chi.URLParam(r, "sectionId"), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

// DeleteSection handles DELETE /courses/{id}/sections/{sectionId}
// @Summary Delete section
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param sectionId path string true "Section ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} map[string]string "Section not found"
// @Router /courses/{id}/sections/{sectionId} [delete]
func (h *CourseHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	course, err := h.courseService.DeleteSection(r.Context(), currentUser(r), id, chi.URLParam(r, "sectionId"))
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

// AddLecture handles POST /courses/{id}/sections/{sectionId}/lectures
// @Summary Add lecture
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param sectionId path string true "Section ID"
// @Param request body models.LectureRequest true "Lecture"
// @Success 201 {object} models.Course
// @Failure 404 {object} map[string]string "Section not found"
// @Router /courses/{id}/sections/{sectionId}/lectures [post]
func (h *CourseHandler) AddLecture(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	var req models.LectureRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	course, err := h.courseService.AddLecture(r.Context(), currentUser(r), id, chi.URLParam(r, "sectionId"), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, course)
}

// UpdateLecture handles PUT /courses/{id}/sections/{sectionId}/lectures/{lectureId}
// @Summary Update lecture
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param sectionId path string true "Section ID"
// @Param lectureId path string true "Lecture ID"
// @Param request body models.LectureRequest true "Lecture fields"
// @Success 200 {object} models.Course
// @Failure 404 {object} map[string]string "Lecture not found"
// @Router /courses/{id}/sections/{sectionId}/lectures/{lectureId} [put]
func (h *CourseHandler) UpdateLecture(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	var req models.LectureRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	course, err := h.courseService.UpdateLecture(r.Context(), currentUser(r), id,
		chi.URLParam(r, "sectionId"), chi.URLParam(r, "lectureId"), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

// DeleteLecture handles DELETE /courses/{id}/sections/{sectionId}/lectures/{lectureId}
// @Summary Delete lecture
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param sectionId path string true "Section ID"
// @Param lectureId path string true "Lecture ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} map[string]string "Lecture not found"
// @Router /courses/{id}/sections/{sectionId}/lectures/{lectureId} [delete]
func (h *CourseHandler) DeleteLecture(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	course, err := h.courseService.DeleteLecture(r.Context(), currentUser(r), id,
		chi.URLParam(r, "sectionId"), chi.URLParam(r, "lectureId"))
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

func parseCourseFilter(r *http.Request) (models.CourseFilter, error) {
	q := r.URL.Query()
	filter := models.CourseFilter{Search: strings.TrimSpace(q.Get("search"))}

	if raw := q.Get("category"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return filter, apperrors.Validation("invalid category")
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("level"); raw != "" {
		level := models.Level(raw)
		filter.Level = &level
	}
	for key, dst := range map[string]*int{"page": &filter.Page, "count": &filter.Count} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return filter, apperrors.Validation("invalid %s", key)
		}
		*dst = n
	}
	return filter, nil
}

func createCourseRequestFromForm(r *http.Request) (*models.CreateCourseRequest, error) {
	form := newMultipartForm(r)
	req := &models.CreateCourseRequest{
		Title:            form.string("title"),
		Description:      form.string("description"),
		ShortDescription: form.string("shortDescription"),
		Categories:       form.ints("categories"),
		Level:            models.Level(form.string("level")),
		Language:         form.string("language"),
		Tags:             form.list("tags"),
		Requirements:     form.list("requirements"),
		LearningOutcomes: form.list("learningOutcomes"),
		DiscountEndDate:  form.timePtr("discountEndDate"),
	}
	if price := form.decimalPtr("price"); price != nil {
		req.Price = *price
	} else if form.err == nil {
		return nil, apperrors.Validation("price is required")
	}
	if certificate := form.boolPtr("certificateIncluded"); certificate != nil {
		req.CertificateIncluded = *certificate
	}
	if discount := form.intPtr("discountPercentage"); discount != nil {
		req.DiscountPercentage = *discount
	}
	if form.err != nil {
		return nil, form.err
	}
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	return req, nil
}

func updateCourseRequestFromForm(r *http.Request) (*models.UpdateCourseRequest, error) {
	form := newMultipartForm(r)
	req := &models.UpdateCourseRequest{
		Title:               form.stringPtr("title"),
		Description:         form.stringPtr("description"),
		ShortDescription:    form.stringPtr("shortDescription"),
		Categories:          form.ints("categories"),
		Price:               form.decimalPtr("price"),
		Language:            form.stringPtr("language"),
		Tags:                form.list("tags"),
		Requirements:        form.list("requirements"),
		LearningOutcomes:    form.list("learningOutcomes"),
		CertificateIncluded: form.boolPtr("certificateIncluded"),
		IsFeatured:          form.boolPtr("isFeatured"),
		DiscountPercentage:  form.intPtr("discountPercentage"),
		DiscountEndDate:     form.timePtr("discountEndDate"),
	}
	if level := form.stringPtr("level"); level != nil {
		l := models.Level(*level)
		req.Level = &l
	}
	if form.err != nil {
		return nil, form.err
	}
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	return req, nil
}
