package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is the JSON shape of every error response.
type ErrorEnvelope struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, &ErrorEnvelope{Code: code, Message: message})
}

func WriteErrorDetails(w http.ResponseWriter, status int, code, message string, details map[string]any) error {
	return WriteJSON(w, status, &ErrorEnvelope{Code: code, Message: message, Details: details})
}
