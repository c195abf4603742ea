package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// SendJSON writes a JSON response with the given status code.
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// SendFailure writes the standard {success:false, message} error body.
func SendFailure(w http.ResponseWriter, statusCode int, message string) {
	SendJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
