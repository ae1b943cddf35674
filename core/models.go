package core

import (
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Documents and fragments receive sequential IDs from the storage backend.
type ID uint64

// ContentHash returns a deterministic hex-encoded BLAKE2b-128 digest of text.
// Identical content always produces an identical hash, which is what makes
// document dedup and content-addressed embedding cache keys work.
func ContentHash(text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Status tracks the lifecycle of a single processing stage.
// Documents carry three independent status tracks (processing, chunking,
// embedding); fragments carry two (processing, embedding).
type Status uint8

const (
	// StatusPending means the stage has not started.
	StatusPending Status = iota + 1
	// StatusProcessing means the stage is currently running.
	StatusProcessing
	// StatusCompleted means the stage finished with every unit succeeding.
	StatusCompleted
	// StatusFailed means the stage finished with no unit succeeding.
	StatusFailed
	// StatusPartial means the stage finished with some units succeeding
	// and some failing. It is a terminal state in its own right, not a
	// transient one.
	StatusPartial
)

var statusNames = map[Status]string{
	StatusPending:    "pending",
	StatusProcessing: "processing",
	StatusCompleted:  "completed",
	StatusFailed:     "failed",
	StatusPartial:    "partially_completed",
}

// String returns the wire name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the defined status values.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Terminal reports whether s is an end state for a stage.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// ParseStatus converts a wire name back into a Status.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, ErrInvalidStatus
}

// SegmentMethod selects the strategy used to split document text into
// fragments.
type SegmentMethod uint8

const (
	// MethodFixed slides a fixed-size character window with overlap.
	MethodFixed SegmentMethod = iota + 1
	// MethodSemantic groups blank-line-delimited paragraphs, the same
	// boundaries MethodParagraph uses.
	MethodSemantic
	// MethodSentence accumulates sentences up to the target size.
	MethodSentence
	// MethodParagraph accumulates paragraphs up to the target size.
	MethodParagraph
)

var methodNames = map[SegmentMethod]string{
	MethodFixed:     "fixed",
	MethodSemantic:  "semantic",
	MethodSentence:  "sentence",
	MethodParagraph: "paragraph",
}

// String returns the wire name of the method.
func (m SegmentMethod) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether m is one of the defined methods.
func (m SegmentMethod) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// ParseSegmentMethod converts a wire name back into a SegmentMethod.
func ParseSegmentMethod(name string) (SegmentMethod, error) {
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	return 0, ErrInvalidMethod
}

// ContentType is a heuristic tag describing what kind of markup a
// fragment's content looks like.
type ContentType uint8

const (
	// ContentText is plain prose, the default.
	ContentText ContentType = iota + 1
	// ContentHeading starts with a markup header marker.
	ContentHeading
	// ContentList starts with a bullet or numbered prefix.
	ContentList
	// ContentCode contains fenced or indented code markers.
	ContentCode
	// ContentQuote starts with a blockquote marker.
	ContentQuote
	// ContentTable looks like pipe-delimited rows.
	ContentTable
)

var contentTypeNames = map[ContentType]string{
	ContentText:    "text",
	ContentHeading: "heading",
	ContentList:    "list",
	ContentCode:    "code",
	ContentQuote:   "quote",
	ContentTable:   "table",
}

// String returns the wire name of the content type.
func (c ContentType) String() string {
	if name, ok := contentTypeNames[c]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether c is one of the defined content types.
func (c ContentType) Valid() bool {
	_, ok := contentTypeNames[c]
	return ok
}

// Priority bounds for documents. Higher priorities drain first when jobs
// are queued together.
const (
	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5
)

// Fragment content length bounds in characters. Drafts outside these
// bounds are rejected by validation and skipped, never truncated.
const (
	MinFragmentChars = 10
	MaxFragmentChars = 8000
)

// Error codes persisted on ErrorRecord. Codes classify a failure for
// later inspection and retry targeting.
const (
	ErrCodeEmptyInput    = "EMPTY_INPUT"
	ErrCodeSegmentation  = "SEGMENTATION_FAILED"
	ErrCodeValidation    = "VALIDATION_FAILED"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeInvalidVector = "INVALID_VECTOR"
	ErrCodeStorage       = "STORAGE_ERROR"
)

// ErrorRecord captures the most recent failure of a document or fragment
// stage, with enough context to target a retry.
type ErrorRecord struct {
	Message    string
	Code       string
	Timestamp  time.Time
	RetryCount int
}

// NewErrorRecord builds an ErrorRecord stamped with the current time.
func NewErrorRecord(code, message string) *ErrorRecord {
	return &ErrorRecord{
		Message:   message,
		Code:      code,
		Timestamp: time.Now().UTC(),
	}
}

// Bump returns a fresh record for a repeated failure of the same unit,
// carrying the retry counter forward from e.
func (e *ErrorRecord) Bump(code, message string) *ErrorRecord {
	retries := 0
	if e != nil {
		retries = e.RetryCount + 1
	}
	return &ErrorRecord{
		Message:    message,
		Code:       code,
		Timestamp:  time.Now().UTC(),
		RetryCount: retries,
	}
}

// Position locates a fragment within its parent document's text.
// StartIndex and EndIndex are byte offsets into the extracted text such
// that text[StartIndex:EndIndex] reproduces the fragment content exactly;
// Index is the fragment's ordinal within the document.
type Position struct {
	Index      int
	StartIndex int
	EndIndex   int
}

// FragmentMetadata describes how a fragment was produced and what its
// content looks like.
type FragmentMetadata struct {
	WordCount     int
	CharCount     int
	ContentType   ContentType
	Method        SegmentMethod
	OverlapBefore int // characters shared with the previous fragment
	OverlapAfter  int // characters shared with the next fragment
}

// UsageStats accumulates retrieval statistics for a fragment.
// AvgRelevance is a running mean updated as (avg*(n-1)+x)/n; under float
// accumulation it is an approximation of the true mean, not exact.
type UsageStats struct {
	QueryCount     int64
	RetrievalCount int64
	AvgRelevance   float64
	TopResultCount int64
}

// Document is the persistent record of one ingested text.
// Documents are soft-deleted: DeletedAt marks removal while the record
// stays readable, so fragments keep a valid parent reference until the
// cleanup reaper purges them.
type Document struct {
	Id       ID
	Title    string
	Filename string
	Text     string
	Hash     string // ContentHash of Text, used for dedup

	SizeBytes int64
	WordCount int
	CharCount int

	ProcessingStatus Status
	ChunkingStatus   Status
	EmbeddingStatus  Status

	FragmentCount int
	Priority      int

	Error     *ErrorRecord
	DeletedAt *time.Time

	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Deleted reports whether the document has been soft-deleted.
func (d *Document) Deleted() bool {
	return d.DeletedAt != nil
}

// Fragment is a bounded slice of a document's text, the unit of
// embedding and retrieval.
type Fragment struct {
	Id         ID
	DocumentId ID

	Position Position
	Content  string
	Metadata FragmentMetadata

	// Embedding fields, populated only by the embedding pipeline.
	Vector     []float32
	Model      string
	Confidence float32

	Usage UsageStats

	ProcessingStatus Status
	EmbeddingStatus  Status
	Error            *ErrorRecord

	// Adjacency links to neighbouring fragments in document order.
	// Zero means no neighbour.
	PrevId ID
	NextId ID

	DeletedAt *time.Time

	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Deleted reports whether the fragment has been soft-deleted.
func (f *Fragment) Deleted() bool {
	return f.DeletedAt != nil
}

// Embedded reports whether the fragment carries a completed embedding.
func (f *Fragment) Embedded() bool {
	return f.EmbeddingStatus == StatusCompleted && len(f.Vector) > 0
}

// FragmentMatch pairs a fragment with its similarity to a query vector.
type FragmentMatch struct {
	Fragment   *Fragment
	Similarity float32
}

// SearchHit is a retrieval result enriched with parent-document context.
type SearchHit struct {
	Fragment         *Fragment
	DocumentTitle    string
	DocumentFilename string
	Similarity       float32
}

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CountChars returns the number of runes in text.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
