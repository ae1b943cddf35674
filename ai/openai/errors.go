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


package openai

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"github.com/poiesic/corpus/ai"
)

// The client library reports HTTP failures as formatted strings rather
// than typed errors, so the status code is recovered from the message.
var statusCodePattern = regexp.MustCompile(`status code: (\d{3})`)

// wrapProviderError lifts the HTTP status out of a provider client error
// into an ai.ProviderError so retry classification can act on it.
// Cancellation and errors without a recognizable status pass through
// unchanged.
func wrapProviderError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	match := statusCodePattern.FindStringSubmatch(err.Error())
	if match == nil {
		return err
	}
	code, convErr := strconv.Atoi(match[1])
	if convErr != nil {
		return err
	}
	return &ai.ProviderError{StatusCode: code, Message: err.Error()}
}
