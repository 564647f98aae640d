package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-case-records/internal/model"
)

const defaultRequestTimeout = 30 * time.Second

// Timeout bounds ordinary JSON requests. Streaming routes use TransferTimeout.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "REQUEST_TIMEOUT",
			Message: "request timed out",
			Details: "limit " + timeout.String(),
		},
	})
	message := string(body)

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
