package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yowaacademy/backend/internal/auth/service"
	"github.com/yowaacademy/backend/internal/config"
	"github.com/yowaacademy/backend/internal/handlers"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/notifications"
	"github.com/yowaacademy/backend/internal/payment"
	"github.com/yowaacademy/backend/internal/repositories"
	"github.com/yowaacademy/backend/internal/services"
	"github.com/yowaacademy/backend/internal/storage"
	"go.uber.org/zap"
)

var (
	testDB     *sql.DB
	testRouter chi.Router
	testQueue  *recordingEnqueuer
	skipReason string
)

var tables = []string{
	"application_status_history", "applications", "leads",
	"instructor_profiles", "instructor_applications",
	"campaign_courses", "campaigns", "discount_coupons",
	"payment_intents", "enrollments", "user_enrolled_courses",
	"course_categories", "courses", "categories",
	"user_tokens", "users",
}

// recordingEnqueuer captures notification tasks instead of sending them to Redis
type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []notifications.EmailPayload
}

func (e *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	var payload notifications.EmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, payload)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(e.tasks))}, nil
}

func (e *recordingEnqueuer) templates() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.tasks))
	for _, t := range e.tasks {
		names = append(names, t.Template)
	}
	return names
}

// TestMain connects to the database from TEST_DB_* and applies migrations.
// Without a configured database every test is skipped.
func TestMain(m *testing.M) {
	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}

	if !cfg.HasDatabase() {
		skipReason = "TEST_DB_* is not configured"
		os.Exit(m.Run())
	}

	testDB, err = sql.Open("mysql", cfg.DSN())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}
	if err := testDB.Ping(); err != nil {
		panic(fmt.Sprintf("Failed to ping test database: %v", err))
	}
	if err := migrateUp(testDB); err != nil {
		panic(fmt.Sprintf("Failed to migrate test database: %v", err))
	}

	uploadDir, err := os.MkdirTemp("", "yowa-uploads-*")
	if err != nil {
		panic(fmt.Sprintf("Failed to create upload dir: %v", err))
	}

	testQueue = &recordingEnqueuer{}
	testRouter = setupTestRouter(testDB, cfg, uploadDir, zap.NewNop())

	code := m.Run()

	testDB.Close()
	os.RemoveAll(uploadDir)
	os.Exit(code)
}

func migrateUp(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "mysql", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// setupTestRouter builds the API router from real repositories and services
func setupTestRouter(db *sql.DB, cfg *config.Config, uploadDir string, logger *zap.Logger) chi.Router {
	tokenGenerator := service.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	notifier := notifications.NewNotifier(testQueue, logger)
	images := storage.NewImageProcessor(storage.NewLocalStorage(uploadDir, "/uploads"), logger)

	userRepo := repositories.NewUserRepository(db, logger)
	categoryRepo := repositories.NewCategoryRepository(db, logger)
	courseRepo := repositories.NewCourseRepository(db, logger)
	enrollmentRepo := repositories.NewEnrollmentRepository(db, logger)

	enrollmentService := services.NewEnrollmentService(enrollmentRepo, userRepo, courseRepo, notifier, logger)
	guards := handlers.NewGuards(tokenGenerator, userRepo)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		handlers.NewAuthHandler(
			services.NewAuthService(userRepo, repositories.NewUserTokenRepository(db), tokenGenerator, images, notifier, logger),
			cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry, logger,
		).RegisterRoutes(r, guards)
		handlers.NewCategoryHandler(services.NewCategoryService(categoryRepo, courseRepo, logger), logger).RegisterRoutes(r, guards)
		handlers.NewCourseHandler(services.NewCourseService(courseRepo, categoryRepo, images, logger), enrollmentService, logger).RegisterRoutes(r, guards)
		handlers.NewEnrollmentHandler(enrollmentService, logger).RegisterRoutes(r, guards)
		handlers.NewPaymentHandler(
			services.NewPaymentService(payment.NewTestGateway(), repositories.NewPaymentIntentRepository(db), enrollmentRepo, userRepo, courseRepo, notifier, logger),
			logger,
		).RegisterRoutes(r, guards)
	})
	return r
}

func requireDatabase(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	if skipReason != "" {
		t.Skip(skipReason)
	}
}

// cleanupTestData truncates every table on one connection so the FK switch applies
func cleanupTestData(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testDB.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0")
	require.NoError(t, err)
	for _, table := range tables {
		_, err = conn.ExecContext(ctx, "TRUNCATE TABLE "+table)
		require.NoError(t, err, "Failed to truncate %s", table)
	}
	_, err = conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	require.NoError(t, err)
}

func doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, name, email string, role models.Role) string {
	t.Helper()
	w := doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func pngCover(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for x := 0; x < 32; x++ {
		img.Set(x, 8, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func createCourse(t *testing.T, token string, fields map[string]string) *models.Course {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("cover", "cover.png")
	require.NoError(t, err)
	_, err = part.Write(pngCover(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var course models.Course
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &course))
	return &course
}

func TestIntegration_CourseEnrollmentFlow(t *testing.T) {
	requireDatabase(t)
	cleanupTestData(t)
	defer cleanupTestData(t)

	adminToken := register(t, "Ada Admin", "ada@example.com", models.RoleStudent)
	_, err := testDB.Exec(`UPDATE users SET role = 'Admin' WHERE email = ?`, "ada@example.com")
	require.NoError(t, err)
	instructorToken := register(t, "Ivan Teacher", "Ivan@Example.com", models.RoleInstructor)
	studentToken := register(t, "Sita Student", "sita@example.com", models.RoleStudent)

	// category
	w := doJSON(t, http.MethodPost, "/api/v1/categories", adminToken, map[string]string{"name": "Programming", "description": "Code"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var category models.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &category))

	// course starts as a draft
	course := createCourse(t, instructorToken, map[string]string{
		"title":       "Go for Beginners",
		"description": "Learn Go from scratch with practical examples",
		"price":       "0",
		"categories":  fmt.Sprintf("[%d]", category.ID),
		"level":       "Beginner",
	})
	assert.False(t, course.IsPublished)
	assert.True(t, strings.HasPrefix(course.CoverImage, "/uploads/covers/"))

	w = doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d", course.ID), studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", course.ID), studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// duplicate title
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Go for Beginners"))
	require.NoError(t, mw.WriteField("description", "Another course with the same title"))
	require.NoError(t, mw.WriteField("price", "10"))
	require.NoError(t, mw.WriteField("categories", fmt.Sprint(category.ID)))
	part, err := mw.CreateFormFile("cover", "cover.png")
	require.NoError(t, err)
	_, err = part.Write(pngCover(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+instructorToken)
	dup := httptest.NewRecorder()
	testRouter.ServeHTTP(dup, req)
	assert.Equal(t, http.StatusBadRequest, dup.Code)

	// sections keep totals in sync
	w = doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/sections", course.ID), instructorToken, map[string]any{"title": "Basics"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var withSection models.Course
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &withSection))
	require.Len(t, withSection.Sections, 1)

	w = doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/v1/courses/%d/sections/%s/lectures", course.ID, withSection.Sections[0].ID),
		instructorToken, map[string]any{"title": "Hello, world", "duration": 15},
	)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var withLecture models.Course
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &withLecture))
	assert.Equal(t, 1, withLecture.TotalLectures)
	assert.Equal(t, 15, withLecture.TotalDuration)

	// publish
	w = doJSON(t, http.MethodPut, fmt.Sprintf("/api/v1/courses/%d/toggle-publish", course.ID), instructorToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/courses?category=%d", category.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Course
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Ivan Teacher", listed[0].InstructorName)

	// enroll once
	w = doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", course.ID), studentToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", course.ID), studentToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already enrolled")

	var enrollments int
	require.NoError(t, testDB.QueryRow(`SELECT COUNT(*) FROM enrollments WHERE course_id = ?`, course.ID).Scan(&enrollments))
	assert.Equal(t, 1, enrollments)

	var enrollmentCount int
	require.NoError(t, testDB.QueryRow(`SELECT enrollment_count FROM courses WHERE id = ?`, course.ID).Scan(&enrollmentCount))
	assert.Equal(t, 1, enrollmentCount)

	w = doJSON(t, http.MethodGet, "/api/v1/auth/me", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, []int{course.ID}, me.EnrolledCourses)

	// progress
	w = doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/v1/enrollments/%d/lectures/%s/complete", course.ID, withLecture.Sections[0].Lectures[0].ID),
		studentToken, nil,
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var progressed models.Enrollment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progressed))
	assert.Equal(t, 100, progressed.Progress)
	assert.NotNil(t, progressed.CompletedAt)

	assert.Contains(t, testQueue.templates(), notifications.TemplateEnrollment)
}

func TestIntegration_PaymentConfirmation(t *testing.T) {
	requireDatabase(t)
	cleanupTestData(t)
	defer cleanupTestData(t)

	instructorToken := register(t, "Ivan Teacher", "ivan@example.com", models.RoleInstructor)
	studentToken := register(t, "Sita Student", "sita@example.com", models.RoleStudent)

	_, err := testDB.Exec(`INSERT INTO categories (name) VALUES ('Design')`)
	require.NoError(t, err)
	var categoryID int
	require.NoError(t, testDB.QueryRow(`SELECT id FROM categories WHERE name = 'Design'`).Scan(&categoryID))

	course := createCourse(t, instructorToken, map[string]string{
		"title":       "Figma in Practice",
		"description": "Design real interfaces with Figma",
		"price":       "49.99",
		"categories":  fmt.Sprint(categoryID),
	})
	w := doJSON(t, http.MethodPut, fmt.Sprintf("/api/v1/courses/%d/toggle-publish", course.ID), instructorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, http.MethodPost, "/api/v1/payment/create-payment-form", studentToken, map[string]any{
		"amount":   "49.99",
		"courseId": course.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var form models.PaymentFormResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &form))
	require.NotEmpty(t, form.Token)

	confirm := map[string]any{"paymentToken": form.Token, "courseId": course.ID}
	w = doJSON(t, http.MethodPost, "/api/v1/payment/confirm-payment", studentToken, confirm)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var confirmed models.ConfirmPaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &confirmed))
	require.NotNil(t, confirmed.Enrollment)
	assert.Equal(t, models.PaymentStatusCompleted, confirmed.Enrollment.PaymentStatus)
	assert.Equal(t, "49.99", confirmed.Enrollment.PaymentAmount.StringFixed(2))

	w = doJSON(t, http.MethodPost, "/api/v1/payment/confirm-payment", studentToken, confirm)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
