package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
)

func TestBaseHandler_RespondServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		showDetail     bool
		expectedStatus int
		expectedError  string
		expectDetail   bool
	}{
		{
			name:           "validation",
			err:            apperrors.Validation("title must be at least 3 characters"),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "title must be at least 3 characters",
		},
		{
			name:           "already enrolled",
			err:            apperrors.AlreadyEnrolled("you are already enrolled in this course"),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "you are already enrolled in this course",
		},
		{
			name:           "unauthenticated",
			err:            apperrors.Unauthenticated("invalid credentials"),
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid credentials",
		},
		{
			name:           "forbidden",
			err:            apperrors.Forbidden("course is not published"),
			expectedStatus: http.StatusForbidden,
			expectedError:  "course is not published",
		},
		{
			name:           "not found wrapped",
			err:            fmt.Errorf("lookup: %w", apperrors.NotFound("course not found")),
			expectedStatus: http.StatusNotFound,
			expectedError:  "course not found",
		},
		{
			name:           "data integrity",
			err:            apperrors.DataIntegrity("course 4 has no instructor"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "course 4 has no instructor",
		},
		{
			name:           "internal hides detail in production",
			err:            errors.New("dial tcp: connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal server error",
		},
		{
			name:           "internal shows detail outside production",
			err:            fmt.Errorf("failed to get course: %w", errors.New("dial tcp: connection refused")),
			showDetail:     true,
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal server error",
			expectDetail:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{Logger: nopLogger(), ShowErrorDetail: tt.showDetail}
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			h.RespondServiceError(w, r, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedError, body["error"])
			if tt.expectDetail {
				assert.Equal(t, tt.err.Error(), body["detail"])
			} else {
				assert.NotContains(t, body, "detail")
			}
		})
	}
}

func TestBaseHandler_DecodeJSON(t *testing.T) {
	h := &BaseHandler{Logger: nopLogger()}

	tests := []struct {
		name          string
		body          string
		expectedError string
	}{
		{
			name: "valid",
			body: `{"name":"Ana","email":"ana@example.com","password":"secret1"}`,
		},
		{
			name:          "malformed json",
			body:          `{"name":`,
			expectedError: "invalid request body",
		},
		{
			name:          "missing field uses json name",
			body:          `{"email":"ana@example.com","password":"secret1"}`,
			expectedError: "name is required",
		},
		{
			name:          "bad email",
			body:          `{"name":"Ana","email":"not-an-email","password":"secret1"}`,
			expectedError: "email must be a valid email",
		},
		{
			name:          "short password",
			body:          `{"name":"Ana","email":"ana@example.com","password":"abc"}`,
			expectedError: "password must have at least 6 characters or items",
		},
		{
			name:          "role outside enum",
			body:          `{"name":"Ana","email":"ana@example.com","password":"secret1","role":"Admin"}`,
			expectedError: "role must be one of: Student Instructor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var req models.RegisterRequest

			err := h.DecodeJSON(r, &req)

			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tt.expectedError, err.Error())
		})
	}
}

func TestURLParamInt(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected int
		wantErr  bool
	}{
		{name: "valid", path: "/items/42", expected: 42},
		{name: "not a number", path: "/items/abc", wantErr: true},
		{name: "zero", path: "/items/0", wantErr: true},
		{name: "negative", path: "/items/-3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got int
				err error
			)
			r := chi.NewRouter()
			r.Get("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
				got, err = URLParamInt(req, "id")
			})
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
