package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the browser UI to call the API with its session cookie.
// Without configured origins every origin is allowed and credentials are not.
func CORS(origins []string) func(http.Handler) http.Handler {
	credentials := len(origins) > 0
	if !credentials {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length", "X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: credentials,
	})

	return handler.Handler
}
