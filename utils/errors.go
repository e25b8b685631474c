package utils

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"tourbook/globals"
)

// StatusError is an error that already knows how it should be reported to the client.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func NotFound(msg string) *StatusError     { return &StatusError{http.StatusNotFound, msg} }
func BadRequest(msg string) *StatusError   { return &StatusError{http.StatusBadRequest, msg} }
func Unauthorized(msg string) *StatusError { return &StatusError{http.StatusUnauthorized, msg} }
func Forbidden(msg string) *StatusError    { return &StatusError{http.StatusForbidden, msg} }
func Conflict(msg string) *StatusError     { return &StatusError{http.StatusConflict, msg} }

// FieldErrorer is implemented by validation failures carrying per-field messages.
type FieldErrorer interface {
	error
	Fields() any
}

// HandleServiceError translates store and service errors into the response taxonomy.
// Anything unclassified is logged and answered with a generic 500.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *StatusError
	var fe FieldErrorer
	switch {
	case errors.As(err, &se):
		RespondWithError(w, se.Code, se.Message)
	case errors.As(err, &fe):
		RespondWithJSON(w, http.StatusBadRequest, M{
			"message": "Validation failed",
			"errors":  fe.Fields(),
		})
	default:
		traceID, _ := r.Context().Value(globals.TraceIDKey).(string)
		log.Printf("[%s] %s %s: %v", traceID, r.Method, r.URL.Path, err)
		RespondWithError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
