package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validDocument() *Document {
	return &Document{
		Id:               1,
		Title:            "Notes",
		Text:             "Some document text worth keeping around.",
		Priority:         DefaultPriority,
		ProcessingStatus: StatusPending,
		ChunkingStatus:   StatusPending,
		EmbeddingStatus:  StatusPending,
		InsertedAt:       time.Now().Add(-time.Minute),
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Document)
		wantErr error
	}{
		{
			name:    "valid document",
			mutate:  func(*Document) {},
			wantErr: nil,
		},
		{
			name:    "valid with ID 0",
			mutate:  func(d *Document) { d.Id = 0 },
			wantErr: nil,
		},
		{
			name:    "valid with zero fragment count",
			mutate:  func(d *Document) { d.FragmentCount = 0 },
			wantErr: nil,
		},
		{
			name:    "empty text",
			mutate:  func(d *Document) { d.Text = "" },
			wantErr: ErrEmptyText,
		},
		{
			name:    "whitespace-only text",
			mutate:  func(d *Document) { d.Text = "  \n\t " },
			wantErr: ErrEmptyText,
		},
		{
			name:    "priority too low",
			mutate:  func(d *Document) { d.Priority = 0 },
			wantErr: ErrInvalidPriority,
		},
		{
			name:    "priority too high",
			mutate:  func(d *Document) { d.Priority = 11 },
			wantErr: ErrInvalidPriority,
		},
		{
			name:    "invalid processing status",
			mutate:  func(d *Document) { d.ProcessingStatus = Status(99) },
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "invalid chunking status",
			mutate:  func(d *Document) { d.ChunkingStatus = Status(0) },
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "invalid embedding status",
			mutate:  func(d *Document) { d.EmbeddingStatus = Status(42) },
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "future inserted at",
			mutate:  func(d *Document) { d.InsertedAt = time.Now().Add(time.Hour) },
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(doc)

			err := ValidateDocument(doc)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateDocument() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("ValidateDocument() error = %v, want wrapped %v", err, ErrInvalidDocument)
			}
		})
	}
}

func TestValidateDocument_Nil(t *testing.T) {
	err := ValidateDocument(nil)
	if !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("ValidateDocument(nil) error = %v, want %v", err, ErrInvalidDocument)
	}
}

func validFragment() *Fragment {
	content := "A fragment holding enough characters to pass the minimum bound."
	return &Fragment{
		Id:         1,
		DocumentId: 1,
		Content:    content,
		Position: Position{
			Index:      0,
			StartIndex: 0,
			EndIndex:   len(content),
		},
		ProcessingStatus: StatusCompleted,
		EmbeddingStatus:  StatusPending,
	}
}

func TestValidateFragment(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Fragment)
		wantErr error
	}{
		{
			name:    "valid fragment",
			mutate:  func(*Fragment) {},
			wantErr: nil,
		},
		{
			name: "valid completed embedding with vector",
			mutate: func(f *Fragment) {
				f.EmbeddingStatus = StatusCompleted
				f.Vector = []float32{0.1, 0.2, 0.3}
			},
			wantErr: nil,
		},
		{
			name:    "empty content",
			mutate:  func(f *Fragment) { f.Content = "" },
			wantErr: ErrEmptyContent,
		},
		{
			name: "content too short",
			mutate: func(f *Fragment) {
				f.Content = "tiny"
				f.Position.EndIndex = f.Position.StartIndex + len("tiny")
			},
			wantErr: ErrContentTooShort,
		},
		{
			name: "content too long",
			mutate: func(f *Fragment) {
				f.Content = strings.Repeat("x", MaxFragmentChars+1)
				f.Position.EndIndex = f.Position.StartIndex + MaxFragmentChars + 1
			},
			wantErr: ErrContentTooLong,
		},
		{
			name:    "negative index",
			mutate:  func(f *Fragment) { f.Position.Index = -1 },
			wantErr: ErrInvalidPosition,
		},
		{
			name:    "end before start",
			mutate:  func(f *Fragment) { f.Position.EndIndex = f.Position.StartIndex },
			wantErr: ErrInvalidPosition,
		},
		{
			name:    "invalid processing status",
			mutate:  func(f *Fragment) { f.ProcessingStatus = Status(77) },
			wantErr: ErrInvalidStatus,
		},
		{
			name: "completed embedding without vector",
			mutate: func(f *Fragment) {
				f.EmbeddingStatus = StatusCompleted
				f.Vector = nil
			},
			wantErr: ErrMissingVector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag := validFragment()
			tt.mutate(frag)

			err := ValidateFragment(frag)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateFragment() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateFragment() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFragment() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidFragment) {
				t.Errorf("ValidateFragment() error = %v, want wrapped %v", err, ErrInvalidFragment)
			}
		})
	}
}

func TestValidateFragment_Nil(t *testing.T) {
	err := ValidateFragment(nil)
	if !errors.Is(err, ErrInvalidFragment) {
		t.Errorf("ValidateFragment(nil) error = %v, want %v", err, ErrInvalidFragment)
	}
}

func TestValidateFragmentContent_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "exactly minimum",
			content: strings.Repeat("a", MinFragmentChars),
			wantErr: nil,
		},
		{
			name:    "exactly maximum",
			content: strings.Repeat("a", MaxFragmentChars),
			wantErr: nil,
		},
		{
			name:    "one below minimum",
			content: strings.Repeat("a", MinFragmentChars-1),
			wantErr: ErrContentTooShort,
		},
		{
			name:    "one above maximum",
			content: strings.Repeat("a", MaxFragmentChars+1),
			wantErr: ErrContentTooLong,
		},
		{
			name:    "multibyte runes counted as chars",
			content: strings.Repeat("é", MinFragmentChars),
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFragmentContent(tt.content)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateFragmentContent() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFragmentContent() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePriority(t *testing.T) {
	tests := []struct {
		name     string
		priority int
		wantErr  bool
	}{
		{"minimum", MinPriority, false},
		{"default", DefaultPriority, false},
		{"maximum", MaxPriority, false},
		{"zero", 0, true},
		{"negative", -3, true},
		{"above max", 11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePriority(tt.priority)

			if tt.wantErr && err == nil {
				t.Error("ValidatePriority() error = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidatePriority() error = %v, want nil", err)
			}
			if err != nil && !errors.Is(err, ErrInvalidPriority) {
				t.Errorf("ValidatePriority() error = %v, want %v", err, ErrInvalidPriority)
			}
		})
	}
}

func TestIsValidTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{
			name: "past timestamp",
			ts:   time.Now().Add(-1 * time.Hour),
			want: true,
		},
		{
			name: "current time (approximately)",
			ts:   time.Now(),
			want: true,
		},
		{
			name: "future timestamp",
			ts:   time.Now().Add(1 * time.Hour),
			want: false,
		},
		{
			name: "zero time",
			ts:   time.Time{},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidTimestamp(tt.ts)
			if got != tt.want {
				t.Errorf("IsValidTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}
