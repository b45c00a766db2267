// Package httperr writes the JSON error body shared by every HTTP endpoint:
//
//	{"errors":[{"type":"...","msg":"...","path":"...","location":"..."}]}
package httperr

import (
	"encoding/json"
	"net/http"
)

// Error types carried in Item.Type.
const (
	TypeValidation   = "field"
	TypeUnauthorized = "UnauthorizedError"
	TypeForbidden    = "ForbiddenError"
	TypeConflict     = "ConflictError"
	TypeNotFound     = "NotFoundError"
	TypeInternal     = "InternalServerError"
)

// Item is one entry of the errors list. Path and Location are set for field validation errors.
type Item struct {
	Type     string `json:"type"`
	Msg      string `json:"msg"`
	Path     string `json:"path,omitempty"`
	Location string `json:"location,omitempty"`
}

// Body is the error response envelope.
type Body struct {
	Errors []Item `json:"errors"`
}

// Write sends status with the given items as the error body.
func Write(w http.ResponseWriter, status int, items ...Item) {
	if items == nil {
		items = []Item{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{Errors: items})
}

// WriteMessage sends status with a single item of type typ.
func WriteMessage(w http.ResponseWriter, status int, typ, msg string) {
	Write(w, status, Item{Type: typ, Msg: msg})
}

// Unauthorized writes a 401 with msg.
func Unauthorized(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusUnauthorized, TypeUnauthorized, msg)
}

// Forbidden writes a 403 with msg.
func Forbidden(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusForbidden, TypeForbidden, msg)
}

// Internal writes a 500 with a generic message. Details belong in the log, not the response.
func Internal(w http.ResponseWriter) {
	WriteMessage(w, http.StatusInternalServerError, TypeInternal, "Internal server error")
}
