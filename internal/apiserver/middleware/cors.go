// Package middleware contains HTTP middleware shared by the CRUD API
// and the orchestrator front door.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSPolicy describes the cross-origin policy applied uniformly to
// every response.
type CORSPolicy struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int // seconds
}

// DefaultCORSPolicy allows any origin. Both services are public
// endpoints called from browsers.
func DefaultCORSPolicy() CORSPolicy {
	return CORSPolicy{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}
}

// CORS applies the policy headers to every response and short-circuits
// OPTIONS preflight requests with 204.
func CORS(policy CORSPolicy) func(http.Handler) http.Handler {
	origins := strings.Join(policy.AllowedOrigins, ", ")
	methods := strings.Join(policy.AllowedMethods, ", ")
	headers := strings.Join(policy.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(policy.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origins)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
