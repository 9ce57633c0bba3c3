package api

import (
	"encoding/json"
	"errors"
	"net/http"

	tallyerr "github.com/amterp/tally/internal/errors"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Matches []string `json:"matches,omitempty"` // Candidates for an ambiguous reference
}

// Error writes an error response, mapping domain errors to HTTP status codes.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := ErrorResponse{Error: err.Error()}

	var notFound *tallyerr.NotFoundError
	var ambiguous *tallyerr.AmbiguousError
	var validation *tallyerr.ValidationError

	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &ambiguous):
		status = http.StatusConflict
		resp.Matches = ambiguous.Matches
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	}

	JSON(w, status, resp)
}

// BadRequest writes a 400 error with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{Error: message})
}
