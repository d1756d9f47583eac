package web

import (
	"encoding/json"
	"net/http"

	"github.com/catalogkit/importer/internal/logging"
)

// ErrorResponse is the JSON body returned for failed API requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError logs the technical error server-side and returns a sanitized
// message to the client. The request-scoped logger carries the request id,
// so errors can be correlated with access logs.
func respondError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	logger := logging.FromContext(r.Context())
	if err != nil {
		logger.Error("request error",
			"path", r.URL.Path,
			"method", r.Method,
			"status", statusCode,
			"error", err,
		)
	} else {
		logger.Warn("request rejected",
			"path", r.URL.Path,
			"method", r.Method,
			"status", statusCode,
			"reason", message,
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON encodes v as JSON with the given status code.
// Encoding errors are logged since headers are already sent.
func respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
