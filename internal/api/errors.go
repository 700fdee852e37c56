package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/family"
	"github.com/abhisek/studybuddy/internal/logging"
)

var errBadBody = errors.New("malformed request body")

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, activity.ErrNotFound),
		errors.Is(err, family.ErrParentNotFound),
		errors.Is(err, family.ErrChildNotFound):
		return http.StatusNotFound
	case errors.Is(err, family.ErrInvalidInput),
		errors.Is(err, errBadBody),
		errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, content.ErrContentGeneration):
		return http.StatusBadGateway
	case errors.Is(err, activity.ErrGenerationInProgress):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// safeMessage hides internal detail from 500 responses.
func safeMessage(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusBadGateway:
		return "could not generate content, please try again"
	case http.StatusServiceUnavailable:
		return activity.ErrGenerationInProgress.Error()
	}
	return err.Error()
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		log.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	respondJSON(w, status, errorResponse{Error: safeMessage(status, err)})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
