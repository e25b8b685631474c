package utils

import (
	"encoding/json"
	"net/http"
)

type M map[string]any

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"message": msg})
}

// RespondWithData wraps a single payload as {success, data}.
func RespondWithData(w http.ResponseWriter, code int, data any) {
	RespondWithJSON(w, code, M{"success": true, "data": data})
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// ListEnvelope is the paginated list body used by every list endpoint.
func ListEnvelope(data any, count int, total int64, p Pagination) M {
	return M{
		"success":    true,
		"count":      count,
		"total":      total,
		"pagination": p,
		"data":       data,
	}
}

func RespondWithList(w http.ResponseWriter, data any, count int, total int64, p Pagination) {
	RespondWithJSON(w, http.StatusOK, ListEnvelope(data, count, total, p))
}

// RespondWithRawJSON writes an already encoded body, such as a cached response.
func RespondWithRawJSON(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}
