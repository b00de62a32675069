// internal/app/system/actor/actor.go
//
// Package actor carries the caller's identity through a request.
// Authentication happens upstream; the gateway forwards the verified
// email in the X-Actor-Email header.
package actor

import (
	"context"
	"net/http"

	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
)

// Header is the request header holding the authenticated email.
const Header = "X-Actor-Email"

type ctxKey struct{}

// WithEmail returns a copy of ctx that carries email (normalized).
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKey{}, normalize.Email(email))
}

// Email returns the identity in ctx, or "".
func Email(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// Require rejects requests without an identity with 401 and stores the
// identity on the context for the rest.
//
// Server-sent event streams cannot set headers from a browser, so an
// "actor" query parameter is accepted for GET requests as well.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := normalize.Email(r.Header.Get(Header))
		if email == "" && r.Method == http.MethodGet {
			email = normalize.Email(r.URL.Query().Get("actor"))
		}
		if email == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication required","kind":"authentication","retry":"reauth"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
	})
}
