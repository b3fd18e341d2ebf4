package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
)

// ProblemDetail is an RFC7807 error body.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{Title: title, Status: status, Detail: detail})
}

// statusFor maps a domain error kind to its HTTP status and title.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "Validation Failed"
	case errors.Is(err, domain.ErrMinimumQuantityNotMet):
		return http.StatusUnprocessableEntity, "Minimum Quantity Not Met"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrInsufficientCapacity):
		return http.StatusConflict, "Insufficient Capacity"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "Invalid State"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, domain.ErrExternal):
		return http.StatusBadGateway, "Upstream Failure"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, title := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeProblem(w, status, title, "")
		return
	}
	logger.DebugContext(r.Context(), "Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	writeProblem(w, status, title, err.Error())
}

func decodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return domain.ValidationError("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return domain.ValidationError("malformed request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError("invalid %s %q", name, raw)
	}
	return int32(id), nil
}

func queryInt32(r *http.Request, name string, def int32) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, domain.ValidationError("invalid %s %q", name, raw)
	}
	return int32(v), nil
}

func queryList(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type pageResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int32 `json:"total"`
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}
