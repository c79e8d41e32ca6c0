package common

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"algoryth/internal/platform/logger"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// Pagination is shared by every paged listing.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

func NewPagination(page, pageSize, total int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = int(math.Ceil(float64(total) / float64(pageSize)))
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, Pages: pages}
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithErr maps err to a status and body. Internal failures are logged and hidden.
func RespondWithErr(w http.ResponseWriter, err error) {
	status := HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error().Err(err).Msg("request failed")
		RespondWithError(w, status, "Internal server error")
		return
	}

	var coded *CodedError
	if !errors.As(err, &coded) && status == http.StatusServiceUnavailable {
		logger.Warn().Err(err).Msg("dependency unavailable")
		RespondWithError(w, status, "Service temporarily unavailable")
		return
	}

	body := ErrorResponse{Error: err.Error()}
	if coded != nil {
		body.Error = coded.Message
		body.Code = coded.Code
		body.Field = coded.Field
	}
	RespondWithJSON(w, status, body)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
