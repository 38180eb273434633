package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
)

func setupCourseRouter(svc *mockCourseService, enroller *mockEnroller) chi.Router {
	h := NewCourseHandler(svc, enroller, nopLogger())
	return newTestRouter(h.RegisterRoutes)
}

// multipartBody builds a multipart body; repeated keys are written as repeated fields
func multipartBody(t *testing.T, fields [][2]string, fileField, fileName string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		require.NoError(t, mw.WriteField(f[0], f[1]))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func validCourseFields() [][2]string {
	return [][2]string{
		{"title", "Go for Backend Developers"},
		{"description", "Build production services in Go"},
		{"categories", "1,2"},
		{"price", "49.90"},
	}
}

func TestCourseHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		token          string
		fields         [][2]string
		withCover      bool
		serviceErr     error
		expectedStatus int
		expectedError  string
		expectCalled   bool
	}{
		{
			name:           "student is forbidden",
			token:          "student",
			fields:         validCourseFields(),
			withCover:      true,
			expectedStatus: http.StatusForbidden,
			expectedError:  "insufficient permissions",
		},
		{
			name:           "anonymous is unauthenticated",
			fields:         validCourseFields(),
			withCover:      true,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "instructor creates unpublished course",
			token:          "instructor",
			fields:         validCourseFields(),
			withCover:      true,
			expectedStatus: http.StatusCreated,
			expectCalled:   true,
		},
		{
			name:           "admin may create",
			token:          "admin",
			fields:         validCourseFields(),
			withCover:      true,
			expectedStatus: http.StatusCreated,
			expectCalled:   true,
		},
		{
			name:  "missing price",
			token: "instructor",
			fields: [][2]string{
				{"title", "Go for Backend Developers"},
				{"description", "Build production services in Go"},
				{"categories", "1"},
			},
			withCover:      true,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "price is required",
		},
		{
			name:  "invalid category id",
			token: "instructor",
			fields: [][2]string{
				{"title", "Go for Backend Developers"},
				{"description", "Build production services in Go"},
				{"categories", "1,abc"},
				{"price", "10"},
			},
			withCover:      true,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid categories",
		},
		{
			name:  "short title rejected by validation tags",
			token: "instructor",
			fields: [][2]string{
				{"title", "Go"},
				{"description", "Build production services in Go"},
				{"categories", "1"},
				{"price", "10"},
			},
			withCover:      true,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "title must have at least 3 characters or items",
		},
		{
			name:           "duplicate title from service",
			token:          "instructor",
			fields:         validCourseFields(),
			withCover:      true,
			serviceErr:     apperrors.AlreadyExists("course with this title already exists"),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "course with this title already exists",
			expectCalled:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCourseService{err: tt.serviceErr}
			router := setupCourseRouter(svc, &mockEnroller{})

			fileField := ""
			if tt.withCover {
				fileField = "cover"
			}
			body, contentType := multipartBody(t, tt.fields, fileField, "cover.png", []byte("png-bytes"))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/courses", body)
			req.Header.Set("Content-Type", contentType)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectCalled, svc.createReq != nil)
			if tt.expectedError != "" {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedError, resp["error"])
			}
			if tt.expectedStatus == http.StatusCreated {
				var course models.Course
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &course))
				assert.False(t, course.IsPublished)
				assert.Equal(t, []int{1, 2}, svc.createReq.Categories)
				assert.True(t, decimal.RequireFromString("49.90").Equal(svc.createReq.Price))
				require.NotNil(t, svc.cover)
				assert.Equal(t, "cover.png", svc.cover.Filename)
				assert.Equal(t, []byte("png-bytes"), svc.coverBytes)
			}
		})
	}
}

func TestCourseHandler_Create_CategoryFormats(t *testing.T) {
	tests := []struct {
		name     string
		fields   [][2]string
		expected []int
	}{
		{
			name:     "json array",
			fields:   [][2]string{{"categories", "[3, 4]"}},
			expected: []int{3, 4},
		},
		{
			name:     "repeated fields",
			fields:   [][2]string{{"categories", "5"}, {"categories", "6"}},
			expected: []int{5, 6},
		},
		{
			name:     "bracket fields",
			fields:   [][2]string{{"categories[]", "7"}, {"categories[]", "8"}},
			expected: []int{7, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCourseService{}
			router := setupCourseRouter(svc, &mockEnroller{})

			fields := append([][2]string{
				{"title", "Go for Backend Developers"},
				{"description", "Build production services in Go"},
				{"price", "0"},
				{"tags", `["go","backend"]`},
			}, tt.fields...)
			body, contentType := multipartBody(t, fields, "cover", "cover.jpg", []byte("jpg"))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/courses", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer instructor")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusCreated, w.Code)
			assert.Equal(t, tt.expected, svc.createReq.Categories)
			assert.Equal(t, []string{"go", "backend"}, svc.createReq.Tags)
		})
	}
}

func TestCourseHandler_GetPublished(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		svc := &mockCourseService{courses: []models.Course{{ID: 1, Title: "Go"}}}
		router := setupCourseRouter(svc, &mockEnroller{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/courses?category=3&level=Advanced&search=+go+&page=2&count=5", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.filter.CategoryID)
		assert.Equal(t, 3, *svc.filter.CategoryID)
		require.NotNil(t, svc.filter.Level)
		assert.Equal(t, models.LevelAdvanced, *svc.filter.Level)
		assert.Equal(t, "go", svc.filter.Search)
		assert.Equal(t, 2, svc.filter.Page)
		assert.Equal(t, 5, svc.filter.Count)
	})

	t.Run("rejects bad page", func(t *testing.T) {
		svc := &mockCourseService{}
		router := setupCourseRouter(svc, &mockEnroller{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/courses?page=zero", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid page")
	})
}

func TestCourseHandler_GetByID_OptionalAuth(t *testing.T) {
	tests := []struct {
		name          string
		token         string
		expectedActor *models.User
	}{
		{name: "anonymous", token: ""},
		{name: "invalid token is ignored", token: "garbage"},
		{name: "owner attached", token: "instructor", expectedActor: testInstructor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCourseService{course: &models.Course{ID: 4, Title: "Go"}}
			router := setupCourseRouter(svc, &mockEnroller{})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/4", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			if tt.expectedActor == nil {
				assert.Nil(t, svc.actor)
			} else {
				require.NotNil(t, svc.actor)
				assert.Equal(t, tt.expectedActor.ID, svc.actor.ID)
			}
		})
	}

	t.Run("draft forbidden", func(t *testing.T) {
		svc := &mockCourseService{err: apperrors.Forbidden("course is not published")}
		router := setupCourseRouter(svc, &mockEnroller{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/courses/4", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCourseHandler_Update(t *testing.T) {
	t.Run("json partial update", func(t *testing.T) {
		svc := &mockCourseService{course: &models.Course{ID: 4}}
		router := setupCourseRouter(svc, &mockEnroller{})

		req := httptest.NewRequest(http.MethodPut, "/api/v1/courses/4", strings.NewReader(`{"title":"Advanced Go","price":"19.99"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer instructor")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.updateReq.Title)
		assert.Equal(t, "Advanced Go", *svc.updateReq.Title)
		require.NotNil(t, svc.updateReq.Price)
		assert.Equal(t, "19.99", svc.updateReq.Price.StringFixed(2))
		assert.Nil(t, svc.updateReq.Description)
		assert.Nil(t, svc.cover)
	})

	t.Run("multipart with new cover", func(t *testing.T) {
		svc := &mockCourseService{course: &models.Course{ID: 4}}
		router := setupCourseRouter(svc, &mockEnroller{})

		body, contentType := multipartBody(t, [][2]string{{"level", "Intermediate"}, {"isFeatured", "true"}}, "cover", "new.webp", []byte("webp"))
		req := httptest.NewRequest(http.MethodPut, "/api/v1/courses/4", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer admin")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.updateReq.Level)
		assert.Equal(t, models.LevelIntermediate, *svc.updateReq.Level)
		require.NotNil(t, svc.updateReq.IsFeatured)
		assert.True(t, *svc.updateReq.IsFeatured)
		assert.Nil(t, svc.updateReq.Title)
		assert.Nil(t, svc.updateReq.Categories)
		require.NotNil(t, svc.cover)
		assert.Equal(t, "new.webp", svc.cover.Filename)
	})

	t.Run("invalid level", func(t *testing.T) {
		svc := &mockCourseService{course: &models.Course{ID: 4}}
		router := setupCourseRouter(svc, &mockEnroller{})

		req := httptest.NewRequest(http.MethodPut, "/api/v1/courses/4", strings.NewReader(`{"level":"Expert"}`))
		req.Header.Set("Authorization", "Bearer instructor")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, svc.updateReq)
	})
}

func TestCourseHandler_Sections(t *testing.T) {
	svc := &mockCourseService{course: &models.Course{ID: 4, TotalLectures: 1}}
	router := setupCourseRouter(svc, &mockEnroller{})

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedSecID  string
		expectedLecID  string
	}{
		{
			name:           "add section",
			method:         http.MethodPost,
			path:           "/api/v1/courses/4/sections",
			body:           `{"title":"Basics"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "update section",
			method:         http.MethodPut,
			path:           "/api/v1/courses/4/sections/s-1",
			body:           `{"title":"Intro"}`,
			expectedStatus: http.StatusOK,
			expectedSecID:  "s-1",
		},
		{
			name:           "add lecture",
			method:         http.MethodPost,
			path:           "/api/v1/courses/4/sections/s-1/lectures",
			body:           `{"title":"Setup","duration":12}`,
			expectedStatus: http.StatusCreated,
			expectedSecID:  "s-1",
		},
		{
			name:           "invalid lecture video url",
			method:         http.MethodPost,
			path:           "/api/v1/courses/4/sections/s-1/lectures",
			body:           `{"title":"Setup","videoUrl":"not a url"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "update lecture",
			method:         http.MethodPut,
			path:           "/api/v1/courses/4/sections/s-2/lectures/l-9",
			body:           `{"duration":5}`,
			expectedStatus: http.StatusOK,
			expectedSecID:  "s-2",
			expectedLecID:  "l-9",
		},
		{
			name:           "delete lecture",
			method:         http.MethodDelete,
			path:           "/api/v1/courses/4/sections/s-3/lectures/l-7",
			expectedStatus: http.StatusOK,
			expectedSecID:  "s-3",
			expectedLecID:  "l-7",
		},
		{
			name:           "delete section",
			method:         http.MethodDelete,
			path:           "/api/v1/courses/4/sections/s-4",
			expectedStatus: http.StatusOK,
			expectedSecID:  "s-4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.sectionID, svc.lectureID = "", ""
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Authorization", "Bearer instructor")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedSecID, svc.sectionID)
			assert.Equal(t, tt.expectedLecID, svc.lectureID)
		})
	}

	t.Run("requires authentication", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/courses/4/sections/s-1", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCourseHandler_Enroll(t *testing.T) {
	router := setupCourseRouter(&mockCourseService{}, &mockEnroller{})

	enroll := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/8/enroll", nil)
		req.Header.Set("Authorization", "Bearer student")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := enroll()
	require.Equal(t, http.StatusCreated, first.Code)
	var enrollment models.Enrollment
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &enrollment))
	assert.Equal(t, 8, enrollment.CourseID)
	assert.Equal(t, models.PaymentMethodFree, enrollment.PaymentMethod)

	second := enroll()
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Contains(t, second.Body.String(), "already enrolled")
}

func TestCourseHandler_RoleRoutes(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		token          string
		expectedStatus int
	}{
		{name: "my courses as student", path: "/api/v1/courses/my", token: "student", expectedStatus: http.StatusForbidden},
		{name: "my courses as instructor", path: "/api/v1/courses/my?status=draft", token: "instructor", expectedStatus: http.StatusOK},
		{name: "admin list as instructor", path: "/api/v1/courses/admin/all", token: "instructor", expectedStatus: http.StatusForbidden},
		{name: "admin list as admin", path: "/api/v1/courses/admin/all", token: "admin", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCourseService{courses: []models.Course{}}
			router := setupCourseRouter(svc, &mockEnroller{})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("status query is passed through", func(t *testing.T) {
		svc := &mockCourseService{courses: []models.Course{}}
		router := setupCourseRouter(svc, &mockEnroller{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/my?status=published", nil)
		req.Header.Set("Authorization", "Bearer instructor")
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "published", svc.status)
	})
}
