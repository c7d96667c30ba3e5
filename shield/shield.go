// Package shield provides reusable HTTP middleware for admin surfaces:
// security headers, request body limits and HEAD method handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxBody(64 * 1024))
//	r.Use(shield.HeadToGet)
//
// Or apply the default admin stack in one call:
//
//	for _, mw := range shield.DefaultAdminStack() {
//	    r.Use(mw)
//	}
package shield

import "net/http"

// DefaultAdminStack returns the standard middleware stack for an admin
// HTTP surface, ordered HeadToGet → SecurityHeaders → MaxBody.
func DefaultAdminStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(64 * 1024),
	}
}
