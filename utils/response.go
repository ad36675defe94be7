package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   ErrorKind   `json:"error,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func RespondData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, Response{Success: true, Data: data})
}

func RespondMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{Success: true, Message: message})
}

// RespondError writes err as a failure envelope. Errors that are not *APIError are
// logged and reported as a generic server error.
func RespondError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		log.Printf("Unhandled error: %v", err)
		apiErr = NewError(KindInternal, "Server Error")
	}
	WriteJSON(w, apiErr.Status(), Response{
		Success: false,
		Message: apiErr.Message,
		Error:   apiErr.Kind,
	})
}
