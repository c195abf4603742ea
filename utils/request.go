package utils

import (
	"encoding/json"
	"net/http"
)

// DecodeJSONRequest decodes JSON from the request body into v.
func DecodeJSONRequest(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
