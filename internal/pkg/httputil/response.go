// Package httputil provides HTTP response helpers and middleware shared by the API.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// JSON writes data as a JSON response body.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Error writes a JSON response with {"error": {"message": ...}} envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]interface{}{
		"error": map[string]string{"message": message},
	})
}

// FieldError describes a problem with one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrorer is implemented by errors that carry per-field details.
type FieldErrorer interface {
	error
	FieldErrors() []FieldError
}

// ValidationError writes a 400 response.
// If err carries field details, they are returned under "details".
func ValidationError(w http.ResponseWriter, err error) {
	body := map[string]interface{}{"message": err.Error()}

	var fe FieldErrorer
	if errors.As(err, &fe) {
		if details := fe.FieldErrors(); len(details) > 0 {
			body["details"] = details
		}
	}

	JSON(w, http.StatusBadRequest, map[string]interface{}{"error": body})
}
