package utils

import (
	"encoding/json"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteJSONError writes {"message": ..., "error": ...}; detail is omitted when empty.
func WriteJSONError(w http.ResponseWriter, code int, message, detail string) {
	body := map[string]string{"message": message}
	if detail != "" {
		body["error"] = detail
	}
	WriteJSON(w, code, body)
}
