package llm

import (
	"errors"
	"net/http"
	"testing"

	"opsdesk/internal/domain"
)

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limit", http.StatusTooManyRequests, domain.ErrRateLimit},
		{"unauthorized", http.StatusUnauthorized, domain.ErrAuthInvalid},
		{"forbidden", http.StatusForbidden, domain.ErrAuthInvalid},
		{"payload too large", http.StatusRequestEntityTooLarge, domain.ErrContextOverflow},
		{"server error", http.StatusInternalServerError, domain.ErrProviderError},
		{"bad gateway", http.StatusBadGateway, domain.ErrProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapHTTPError(tt.status, []byte("detail"))
			if !errors.Is(err, tt.want) {
				t.Errorf("mapHTTPError(%d) = %v, want %v", tt.status, err, tt.want)
			}
		})
	}
}

func TestMapHTTPErrorClientErrorIsNotRetryable(t *testing.T) {
	err := mapHTTPError(http.StatusBadRequest, []byte("bad request"))
	if domain.IsRetryableError(err) {
		t.Error("400 should not be retryable")
	}
	if err == nil {
		t.Fatal("expected error")
	}
}
