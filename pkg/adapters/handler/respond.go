package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
)

// maxBodyBytes caps request bodies; page HTML is the largest payload
const maxBodyBytes = 5 << 20

// ErrorResponse is the body of every non-2xx JSON reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFail(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, ErrorResponse{Error: http.StatusText(status), Message: msg, Details: details})
}

// writeError maps a service error onto the error envelope and logs it
func writeError(w http.ResponseWriter, r *http.Request, fallback logger.Logger, err error) {
	log := logger.FromContext(r.Context(), fallback)

	var (
		validation *domain.ValidationError
		parse      *domain.SchemaParseError
		incomplete *domain.SchemaIncompleteError
		upstream   *domain.UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Message: validation.Error(),
			Details: map[string]string{"field": validation.Field},
		})
	case errors.Is(err, domain.ErrUnauthorized):
		writeFail(w, http.StatusUnauthorized, "", nil)
	case errors.Is(err, domain.ErrNotFound):
		writeFail(w, http.StatusNotFound, "", nil)
	case errors.As(err, &parse):
		log.Error("Generated output could not be parsed", logger.Error(err), logger.String("raw", parse.Raw))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to parse analysis",
			Message: err.Error(),
		})
	case errors.As(err, &incomplete):
		log.Error("Generated output incomplete", logger.Strings("missing", incomplete.Missing))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Incomplete analysis",
			Message: err.Error(),
			Details: map[string][]string{"missing": incomplete.Missing},
		})
	case errors.As(err, &upstream):
		log.Error("Upstream call failed", logger.String("service", upstream.Service), logger.Error(upstream.Err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Upstream failure",
			Message: upstream.Error(),
		})
	default:
		log.Error("Unhandled error", logger.Error(err))
		writeFail(w, http.StatusInternalServerError, err.Error(), nil)
	}
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &domain.ValidationError{Field: "body", Reason: "request body is required"}
		}
		return &domain.ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()}
	}
	return nil
}
