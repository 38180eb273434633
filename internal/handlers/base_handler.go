// Package handlers exposes the marketplace services over HTTP
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/middlewares"
	"github.com/yowaacademy/backend/internal/services"
	"go.uber.org/zap"
)

// maxMultipartMemory matches the request size limit of the router
const maxMultipartMemory = 20 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// BaseHandler holds the response helpers shared by all handlers
type BaseHandler struct {
	Logger *zap.Logger
	// ShowErrorDetail adds the wrapped error chain to 500 responses
	ShowErrorDetail bool
}

// SetShowErrorDetail toggles error details, enabled outside production
func (h *BaseHandler) SetShowErrorDetail(show bool) {
	h.ShowErrorDetail = show
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondMessage sends {"message": msg}
func (h *BaseHandler) RespondMessage(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"message": message})
}

// RespondServiceError maps a service error to its HTTP status and writes it.
// Server errors are logged with the request id.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	body := map[string]string{"error": apperrors.PublicMessage(err)}

	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("request_id", middlewares.GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if h.ShowErrorDetail {
			body["detail"] = err.Error()
		}
	}

	h.RespondJSON(w, status, body)
}

// DecodeJSON decodes the request body into dst and validates its struct tags
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Validation("invalid request body")
	}
	return ValidateStruct(dst)
}

// ValidateStruct runs the validate tags of a request DTO
func ValidateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperrors.Validation("%s", fieldMessage(fieldErrs[0]))
	}
	return apperrors.Validation("invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if isSized(fe.Kind()) {
			return fmt.Sprintf("%s must have at least %s characters or items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isSized(fe.Kind()) {
			return fmt.Sprintf("%s must have at most %s characters or items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func isSized(kind reflect.Kind) bool {
	return kind == reflect.String || kind == reflect.Slice || kind == reflect.Map
}

// URLParamInt reads a positive integer path parameter
func URLParamInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value <= 0 {
		return 0, apperrors.Validation("invalid %s", name)
	}
	return value, nil
}

// formFile returns the uploaded file of a multipart field, or nil when it is absent.
// The caller closes the returned closer.
func formFile(r *http.Request, field string) (*services.FileUpload, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, apperrors.Validation("failed to process %s file", field)
	}
	if header.Size == 0 {
		file.Close()
		return nil, func() {}, nil
	}
	upload := &services.FileUpload{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	return upload, func() { file.Close() }, nil
}

// parseMultipart parses a multipart body, mapping failures to a validation error
func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return apperrors.Validation("failed to parse multipart form")
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
