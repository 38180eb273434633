package handlers

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/services"
	"go.uber.org/zap"
)

var (
	testStudent    = &models.User{ID: 1, Name: "Sam Student", Email: "sam@example.com", Role: models.RoleStudent}
	testInstructor = &models.User{ID: 2, Name: "Iris Instructor", Email: "iris@example.com", Role: models.RoleInstructor}
	testAdmin      = &models.User{ID: 3, Name: "Ada Admin", Email: "ada@example.com", Role: models.RoleAdmin}
)

// tokenUsers resolves the bearer tokens "student", "instructor" and "admin"
type tokenUsers struct{}

func (tokenUsers) ValidateAccessToken(token string) (int, string, error) {
	switch token {
	case "student":
		return testStudent.ID, string(testStudent.Role), nil
	case "instructor":
		return testInstructor.ID, string(testInstructor.Role), nil
	case "admin":
		return testAdmin.ID, string(testAdmin.Role), nil
	}
	return 0, "", errors.New("invalid token")
}

func (tokenUsers) GetByID(ctx context.Context, id int) (*models.User, error) {
	for _, u := range []*models.User{testStudent, testInstructor, testAdmin} {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func testGuards() Guards {
	return NewGuards(tokenUsers{}, tokenUsers{})
}

// newTestRouter mounts the routes of one handler under /api/v1
func newTestRouter(register func(r chi.Router, guards Guards)) chi.Router {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		register(r, testGuards())
	})
	return r
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

type mockAuthService struct {
	resp         *models.AuthResponse
	err          error
	user         *models.User
	registerReq  *models.RegisterRequest
	refreshToken string
	loggedOut    string
	avatarName   string
}

func (m *mockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	m.registerReq = req
	return m.resp, m.err
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	return m.resp, m.err
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	m.refreshToken = refreshToken
	return m.resp, m.err
}

func (m *mockAuthService) Logout(ctx context.Context, refreshToken string) error {
	m.loggedOut = refreshToken
	if refreshToken == "" {
		return apperrors.Validation("refresh token is required")
	}
	return m.err
}

func (m *mockAuthService) Me(ctx context.Context, userID int) (*models.User, error) {
	return m.user, m.err
}

func (m *mockAuthService) UpdateAvatar(ctx context.Context, user *models.User, file *services.FileUpload) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.avatarName = file.Filename
	updated := *user
	updated.Avatar = "/uploads/avatars/new.png"
	return &updated, nil
}

type mockCourseService struct {
	course     *models.Course
	courses    []models.Course
	err        error
	createReq  *models.CreateCourseRequest
	cover      *services.FileUpload
	coverBytes []byte
	updateReq  *models.UpdateCourseRequest
	filter     models.CourseFilter
	actor      *models.User
	sectionID  string
	lectureID  string
	status     string
}

func (m *mockCourseService) Create(ctx context.Context, actor *models.User, req *models.CreateCourseRequest, cover *services.FileUpload) (*models.Course, error) {
	m.actor, m.createReq, m.cover = actor, req, cover
	if m.err != nil {
		return nil, m.err
	}
	if cover != nil {
		m.coverBytes, _ = io.ReadAll(cover.Reader)
	}
	instructorID := actor.ID
	return &models.Course{
		ID:           10,
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: &instructorID,
		Price:        req.Price,
		IsPublished:  false,
		Level:        models.LevelBeginner,
	}, nil
}

func (m *mockCourseService) GetPublished(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	m.filter = filter
	return m.courses, m.err
}

func (m *mockCourseService) GetByID(ctx context.Context, actor *models.User, id int) (*models.Course, error) {
	m.actor = actor
	return m.course, m.err
}

func (m *mockCourseService) GetMy(ctx context.Context, actor *models.User, status string) ([]models.Course, error) {
	m.actor, m.status = actor, status
	return m.courses, m.err
}

func (m *mockCourseService) GetAll(ctx context.Context) ([]models.Course, error) {
	return m.courses, m.err
}

func (m *mockCourseService) Update(ctx context.Context, actor *models.User, id int, req *models.UpdateCourseRequest, cover *services.FileUpload) (*models.Course, error) {
	m.actor, m.updateReq, m.cover = actor, req, cover
	return m.course, m.err
}

func (m *mockCourseService) Delete(ctx context.Context, actor *models.User, id int) error {
	m.actor = actor
	return m.err
}

func (m *mockCourseService) TogglePublish(ctx context.Context, actor *models.User, id int) (*models.Course, error) {
	m.actor = actor
	return m.course, m.err
}

func (m *mockCourseService) AddSection(ctx context.Context, actor *models.User, courseID int, req *models.SectionRequest) (*models.Course, error) {
	m.actor = actor
	return m.course, m.err
}

func (m *mockCourseService) UpdateSection(ctx context.Context, actor *models.User, courseID int, sectionID string, req *models.SectionRequest) (*models.Course, error) {
	m.actor, m.sectionID = actor, sectionID
	return m.course, m.err
}

func (m *mockCourseService) DeleteSection(ctx context.Context, actor *models.User, courseID int, sectionID string) (*models.Course, error) {
	m.actor, m.sectionID = actor, sectionID
	return m.course, m.err
}

func (m *mockCourseService) AddLecture(ctx context.Context, actor *models.User, courseID int, sectionID string, req *models.LectureRequest) (*models.Course, error) {
	m.actor, m.sectionID = actor, sectionID
	return m.course, m.err
}

func (m *mockCourseService) UpdateLecture(ctx context.Context, actor *models.User, courseID int, sectionID, lectureID string, req *models.LectureRequest) (*models.Course, error) {
	m.actor, m.sectionID, m.lectureID = actor, sectionID, lectureID
	return m.course, m.err
}

func (m *mockCourseService) DeleteLecture(ctx context.Context, actor *models.User, courseID int, sectionID, lectureID string) (*models.Course, error) {
	m.actor, m.sectionID, m.lectureID = actor, sectionID, lectureID
	return m.course, m.err
}

type mockEnroller struct {
	enrolled map[string]bool
}

func (m *mockEnroller) Enroll(ctx context.Context, actor *models.User, courseID int) (*models.Enrollment, error) {
	if m.enrolled == nil {
		m.enrolled = make(map[string]bool)
	}
	key := strconv.Itoa(actor.ID) + ":" + strconv.Itoa(courseID)
	if m.enrolled[key] {
		return nil, apperrors.AlreadyEnrolled("you are already enrolled in this course")
	}
	m.enrolled[key] = true
	return &models.Enrollment{
		ID:            1,
		UserID:        actor.ID,
		CourseID:      courseID,
		PaymentStatus: models.PaymentStatusCompleted,
		PaymentMethod: models.PaymentMethodFree,
	}, nil
}

type mockPaymentService struct {
	form       *models.PaymentFormResponse
	confirm    *models.ConfirmPaymentResponse
	err        error
	formReq    *models.CreatePaymentFormRequest
	confirmReq *models.ConfirmPaymentRequest
}

func (m *mockPaymentService) CreatePaymentForm(ctx context.Context, actor *models.User, req *models.CreatePaymentFormRequest) (*models.PaymentFormResponse, error) {
	m.formReq = req
	return m.form, m.err
}

func (m *mockPaymentService) ConfirmPayment(ctx context.Context, actor *models.User, req *models.ConfirmPaymentRequest) (*models.ConfirmPaymentResponse, error) {
	m.confirmReq = req
	return m.confirm, m.err
}

type mockInstructorService struct {
	app         *models.InstructorApplication
	err         error
	reviewID    int
	reviewState models.ApplicationStatus
}

func (m *mockInstructorService) Apply(ctx context.Context, actor *models.User, req *models.ApplyInstructorRequest) (*models.InstructorApplication, error) {
	return m.app, m.err
}

func (m *mockInstructorService) GetMyApplication(ctx context.Context, actor *models.User) (*models.InstructorApplication, error) {
	return m.app, m.err
}

func (m *mockInstructorService) GetApplications(ctx context.Context) ([]models.InstructorApplication, error) {
	return nil, m.err
}

func (m *mockInstructorService) Review(ctx context.Context, actor *models.User, id int, status models.ApplicationStatus) (*models.InstructorApplication, error) {
	m.reviewID, m.reviewState = id, status
	if m.err != nil {
		return nil, m.err
	}
	app := *m.app
	app.Status = status
	return &app, nil
}

func (m *mockInstructorService) GetProfiles(ctx context.Context) ([]models.InstructorProfile, error) {
	return nil, m.err
}

func (m *mockInstructorService) UpdateMyProfile(ctx context.Context, actor *models.User, req *models.UpdateProfileRequest) (*models.InstructorProfile, error) {
	return &models.InstructorProfile{UserID: actor.ID}, m.err
}

func (m *mockInstructorService) DeleteProfile(ctx context.Context, actor *models.User, id int) error {
	return m.err
}

type mockApplicationService struct {
	app       *models.Application
	err       error
	submitted *models.SubmitApplicationRequest
}

func (m *mockApplicationService) Submit(ctx context.Context, req *models.SubmitApplicationRequest) (*models.Application, error) {
	m.submitted = req
	return m.app, m.err
}

func (m *mockApplicationService) GetAll(ctx context.Context) ([]models.Application, error) {
	return nil, m.err
}

func (m *mockApplicationService) UpdateStatus(ctx context.Context, actor *models.User, id int, req *models.UpdateApplicationStatusRequest) (*models.Application, error) {
	return m.app, m.err
}

type mockCategoryService struct {
	category *models.Category
	err      error
}

func (m *mockCategoryService) Create(ctx context.Context, req *models.CategoryRequest) (*models.Category, error) {
	return m.category, m.err
}

func (m *mockCategoryService) GetAll(ctx context.Context) ([]models.Category, error) {
	return nil, m.err
}

func (m *mockCategoryService) GetByID(ctx context.Context, id int) (*models.Category, error) {
	return m.category, m.err
}

func (m *mockCategoryService) GetWithCourses(ctx context.Context, id int) (*models.CategoryWithCourses, error) {
	return &models.CategoryWithCourses{Category: m.category, Courses: []models.Course{}}, m.err
}

func (m *mockCategoryService) Update(ctx context.Context, id int, req *models.CategoryRequest) (*models.Category, error) {
	return m.category, m.err
}

func (m *mockCategoryService) Delete(ctx context.Context, id int) error {
	return m.err
}
