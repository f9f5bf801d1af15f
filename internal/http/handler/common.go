package handler

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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/http/middleware"
	"github.com/straye-as/crm-api/internal/logger"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var validate = validator.New()

func init() {
	// Report json names in validation errors instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = formatValidationError(fe)
		}
	}
	respondFieldErrors(w, fields)
}

func respondFieldErrors(w http.ResponseWriter, fields map[string]string) {
	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: fields,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	default:
		return domain.ErrorTypeInternal
	}
}

// handleServiceError maps service errors onto HTTP responses. Anything
// unrecognised is logged and reported as a 500 with msg as the detail.
func handleServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, msg string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondFieldErrors(w, verr.Fields)
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, service.ErrPermissionDenied):
		respondWithError(w, http.StatusForbidden, "You do not have permission to perform this action")
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, capitalize(err.Error()))
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		l := logger.WithRequest(log, r.Method, r.URL.Path, middleware.RequestID(r.Context()))
		if actor, ok := auth.FromContext(r.Context()); ok {
			l = logger.WithActor(l, actor.UserID, string(actor.Role))
		}
		l.Error(msg, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, msg)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// actorFrom returns the authenticated user, writing a 401 when there is none
func actorFrom(w http.ResponseWriter, r *http.Request) (*auth.UserContext, bool) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return actor, true
}

// decodeAndValidate reads a JSON body into dst and runs struct validation,
// writing the error response itself when either fails
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// parseID reads the {id} path parameter
func parseID(w http.ResponseWriter, r *http.Request, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID: must be a valid UUID", entity))
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// queryUUID parses an optional UUID query parameter. A malformed value is a 400.
func queryUUID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondFieldErrors(w, map[string]string{name: "Must be a valid UUID"})
		return nil, false
	}
	return &id, true
}

// queryDecimal parses an optional decimal query parameter. A malformed value is a 400.
func queryDecimal(w http.ResponseWriter, r *http.Request, name string) (*decimal.Decimal, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		respondFieldErrors(w, map[string]string{name: "Must be a number"})
		return nil, false
	}
	return &d, true
}

// queryBool parses an optional boolean query parameter. A malformed value is a 400.
func queryBool(w http.ResponseWriter, r *http.Request, name string) (*bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		respondFieldErrors(w, map[string]string{name: "Must be true or false"})
		return nil, false
	}
	return &b, true
}
