package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderError_Error(t *testing.T) {
	err := &ProviderError{StatusCode: 429, Message: "rate limited"}
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")

	err = &ProviderError{Message: "connection reset"}
	assert.NotContains(t, err.Error(), "status")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"rate limited", &ProviderError{StatusCode: 429}, true},
		{"request timeout", &ProviderError{StatusCode: 408}, true},
		{"server error", &ProviderError{StatusCode: 500}, true},
		{"bad gateway", &ProviderError{StatusCode: 502}, true},
		{"unauthorized", &ProviderError{StatusCode: 401}, false},
		{"forbidden", &ProviderError{StatusCode: 403}, false},
		{"bad request", &ProviderError{StatusCode: 400}, false},
		{"no status", &ProviderError{Message: "connection reset"}, true},
		{"wrapped provider error", fmt.Errorf("embed batch: %w", &ProviderError{StatusCode: 503}), true},
		{"wrapped permanent", fmt.Errorf("embed batch: %w", &ProviderError{StatusCode: 401}), false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"unknown error", errors.New("something odd"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}
