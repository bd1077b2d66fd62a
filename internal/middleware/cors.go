package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser forms hosted on allowedOrigins to reach the API.
// With no origins configured no CORS headers are emitted.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	// cors treats an empty list as "allow all".
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
