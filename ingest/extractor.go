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


package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/corpus/core"
)

// TextExtractor turns a file on disk into ingestible text.
type TextExtractor interface {
	// Extract reads the file at path and returns its textual content.
	Extract(ctx context.Context, path string) (string, error)
}

// PlainTextExtractor reads files as UTF-8 text verbatim.
type PlainTextExtractor struct{}

var _ TextExtractor = (*PlainTextExtractor)(nil)

// Extract reads the whole file. Empty or whitespace-only files map to
// core.ErrEmptyText so callers can treat them like empty ingest input.
func (e *PlainTextExtractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8 text", path)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", path, core.ErrEmptyText)
	}
	return text, nil
}
