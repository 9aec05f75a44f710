package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonResponse(w, errorResponse{Error: msg}, status)
}

func jsonErrorDetails(w http.ResponseWriter, msg, details string, status int) {
	jsonResponse(w, errorResponse{Error: msg, Details: details}, status)
}

// decodeBody reads a JSON request body, writing the error response itself
// when the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// MethodNotAllowed answers every unsupported method with a JSON 405.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// Preflight answers OPTIONS requests that reach the router.
func Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}
