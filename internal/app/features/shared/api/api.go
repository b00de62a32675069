// internal/app/features/shared/api/api.go
//
// Package api holds the JSON request and response helpers shared by the
// feature handlers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/inputval"
	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxJSONBody caps JSON request bodies.
const MaxJSONBody = 1 << 20

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Decode reads a JSON body into dst and validates it. Malformed or
// invalid bodies come back as validation errors.
func Decode(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	body := http.MaxBytesReader(w, r.Body, MaxJSONBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Validation(op, "request body is required")
		case errors.As(err, &tooBig):
			return apperr.Validation(op, "request body is too large")
		}
		return apperr.Validation(op, "malformed JSON: "+err.Error())
	}
	return inputval.Struct(op, dst)
}

// ObjectID parses the named URL parameter as an id.
func ObjectID(r *http.Request, op, param string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, param)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation(op, param+" is not a valid id")
	}
	return id, nil
}

// Self returns the identity in the named URL parameter when it is the
// actor's own, and an authorization error otherwise.
func Self(r *http.Request, op, param string) (string, error) {
	who := normalize.Email(chi.URLParam(r, param))
	if who == "" || who != actor.Email(r.Context()) {
		return "", apperr.Authorization(op, "you can only act on your own account")
	}
	return who, nil
}
