package main

import (
	"net/http"
	"slices"
)

// corsMiddleware sets CORS headers on ALL responses, including errors, so the
// browser never blocks an error body from a view served on another port.
// An allowed list of ["*"] (or empty) answers any origin; otherwise the
// request Origin is echoed only when listed.
func corsMiddleware(allowed []string, next http.Handler) http.Handler {
	anyOrigin := len(allowed) == 0 || slices.Contains(allowed, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case anyOrigin:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(allowed, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
