package common

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope wraps every successful API response.
type Envelope struct {
	Status    string      `json:"status"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Respond writes data inside a success envelope with the given status code.
func Respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(Envelope{
		Status:    "success",
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}
