package core

import (
	"testing"
	"time"
)

func TestContentHash(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "plain content",
			content: "test content",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h1 := ContentHash(tt.content)
			h2 := ContentHash(tt.content)

			if h1 != h2 {
				t.Errorf("ContentHash() produced different hashes for same content: %s vs %s", h1, h2)
			}
			if len(h1) != 32 {
				t.Errorf("ContentHash() length = %d, want 32 hex chars", len(h1))
			}
		})
	}
}

func TestContentHash_Different(t *testing.T) {
	h1 := ContentHash("content1")
	h2 := ContentHash("content2")

	if h1 == h2 {
		t.Errorf("ContentHash() produced same hash for different content")
	}
}

func TestStatus_Roundtrip(t *testing.T) {
	statuses := []Status{
		StatusPending,
		StatusProcessing,
		StatusCompleted,
		StatusFailed,
		StatusPartial,
	}

	for _, s := range statuses {
		t.Run(s.String(), func(t *testing.T) {
			if !s.Valid() {
				t.Errorf("Status(%d).Valid() = false, want true", s)
			}

			parsed, err := ParseStatus(s.String())
			if err != nil {
				t.Fatalf("ParseStatus(%q) error = %v", s.String(), err)
			}
			if parsed != s {
				t.Errorf("ParseStatus(%q) = %v, want %v", s.String(), parsed, s)
			}
		})
	}
}

func TestStatus_Invalid(t *testing.T) {
	if Status(0).Valid() {
		t.Error("Status(0).Valid() = true, want false")
	}
	if Status(99).String() != "unknown" {
		t.Errorf("Status(99).String() = %q, want unknown", Status(99).String())
	}
	if _, err := ParseStatus("bogus"); err == nil {
		t.Error("ParseStatus(bogus) error = nil, want error")
	}
}

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusPartial, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("Status(%v).Terminal() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestSegmentMethod_Roundtrip(t *testing.T) {
	methods := []SegmentMethod{
		MethodFixed,
		MethodSemantic,
		MethodSentence,
		MethodParagraph,
	}

	for _, m := range methods {
		t.Run(m.String(), func(t *testing.T) {
			if !m.Valid() {
				t.Errorf("SegmentMethod(%d).Valid() = false, want true", m)
			}

			parsed, err := ParseSegmentMethod(m.String())
			if err != nil {
				t.Fatalf("ParseSegmentMethod(%q) error = %v", m.String(), err)
			}
			if parsed != m {
				t.Errorf("ParseSegmentMethod(%q) = %v, want %v", m.String(), parsed, m)
			}
		})
	}

	if _, err := ParseSegmentMethod("bogus"); err == nil {
		t.Error("ParseSegmentMethod(bogus) error = nil, want error")
	}
}

func TestErrorRecord_Bump(t *testing.T) {
	first := NewErrorRecord(ErrCodeProvider, "rate limited")
	if first.RetryCount != 0 {
		t.Errorf("NewErrorRecord() RetryCount = %d, want 0", first.RetryCount)
	}

	second := first.Bump(ErrCodeProvider, "rate limited again")
	if second.RetryCount != 1 {
		t.Errorf("Bump() RetryCount = %d, want 1", second.RetryCount)
	}
	if second.Message != "rate limited again" {
		t.Errorf("Bump() Message = %q, want new message", second.Message)
	}

	third := second.Bump(ErrCodeInvalidVector, "bad dims")
	if third.RetryCount != 2 {
		t.Errorf("Bump() RetryCount = %d, want 2", third.RetryCount)
	}
	if third.Code != ErrCodeInvalidVector {
		t.Errorf("Bump() Code = %q, want %q", third.Code, ErrCodeInvalidVector)
	}
}

func TestErrorRecord_BumpNil(t *testing.T) {
	var rec *ErrorRecord
	bumped := rec.Bump(ErrCodeProvider, "first failure")

	if bumped.RetryCount != 0 {
		t.Errorf("nil.Bump() RetryCount = %d, want 0", bumped.RetryCount)
	}
}

func TestDocument_Deleted(t *testing.T) {
	doc := &Document{}
	if doc.Deleted() {
		t.Error("Deleted() = true for document without DeletedAt")
	}

	now := time.Now()
	doc.DeletedAt = &now
	if !doc.Deleted() {
		t.Error("Deleted() = false for document with DeletedAt set")
	}
}

func TestFragment_Embedded(t *testing.T) {
	tests := []struct {
		name string
		frag Fragment
		want bool
	}{
		{
			name: "completed with vector",
			frag: Fragment{EmbeddingStatus: StatusCompleted, Vector: []float32{0.1, 0.2}},
			want: true,
		},
		{
			name: "completed without vector",
			frag: Fragment{EmbeddingStatus: StatusCompleted},
			want: false,
		},
		{
			name: "pending with vector",
			frag: Fragment{EmbeddingStatus: StatusPending, Vector: []float32{0.1}},
			want: false,
		},
		{
			name: "failed",
			frag: Fragment{EmbeddingStatus: StatusFailed},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frag.Embedded(); got != tt.want {
				t.Errorf("Embedded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"plain sentence", "the quick brown fox", 4},
		{"extra whitespace", "  spaced   out\twords \n here ", 4},
		{"empty", "", 0},
		{"whitespace only", "   \n\t", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountWords(tt.text); got != tt.want {
				t.Errorf("CountWords(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestCountChars(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"ascii", "hello", 5},
		{"multibyte runes", "héllo wörld", 11},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountChars(tt.text); got != tt.want {
				t.Errorf("CountChars(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}
