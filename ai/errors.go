// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ProviderError describes a failed provider call together with the HTTP
// status the service answered with, when one is known. StatusCode zero
// means the failure happened before a status was received.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

// IsRetryable reports whether err describes a transient provider
// failure. Rate limiting (429), request timeouts (408), server errors
// (5xx), network errors and deadline expiries are retryable; other 4xx
// statuses and canceled contexts are permanent. Unknown errors count as
// retryable, the caller's attempt cap bounds the damage.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		switch {
		case providerErr.StatusCode == http.StatusTooManyRequests:
			return true
		case providerErr.StatusCode == http.StatusRequestTimeout:
			return true
		case providerErr.StatusCode >= 500:
			return true
		case providerErr.StatusCode >= 400:
			return false
		}
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return true
}
