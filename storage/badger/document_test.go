package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

func makeTestDocument(title, text string) *core.Document {
	return &core.Document{
		Title:            title,
		Filename:         title + ".txt",
		Text:             text,
		Hash:             core.ContentHash(text),
		SizeBytes:        int64(len(text)),
		WordCount:        core.CountWords(text),
		CharCount:        core.CountChars(text),
		ProcessingStatus: core.StatusPending,
		ChunkingStatus:   core.StatusPending,
		EmbeddingStatus:  core.StatusPending,
		Priority:         core.DefaultPriority,
	}
}

func TestDocumentBasics(t *testing.T) {
	// Create in-memory repositories
	docRepo, fragRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { fragRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	// Test adding a document
	doc := makeTestDocument("Hello", "Hello, world!")

	added, err := docRepo.AddDocuments(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(added))
	}

	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	if added[0].InsertedAt.IsZero() || added[0].UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be set")
	}

	// Test retrieving the document
	retrieved, err := docRepo.GetDocument(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}

	if retrieved.Text != "Hello, world!" {
		t.Fatalf("Expected 'Hello, world!', got '%s'", retrieved.Text)
	}
	if retrieved.Hash != doc.Hash {
		t.Fatalf("Expected hash %s, got %s", doc.Hash, retrieved.Hash)
	}
}

func TestAddDocuments_DuplicateHash(t *testing.T) {
	docRepo, fragRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { fragRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = docRepo.AddDocuments(ctx, makeTestDocument("First", "identical content"))
	if err != nil {
		t.Fatalf("Failed to add first document: %v", err)
	}

	_, err = docRepo.AddDocuments(ctx, makeTestDocument("Second", "identical content"))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey for duplicate content, got %v", err)
	}
}

func TestFindDocumentByHash(t *testing.T) {
	docRepo, fragRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { fragRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	doc := makeTestDocument("Lookup", "content for hash lookup")
	added, err := docRepo.AddDocuments(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	found, err := docRepo.FindDocumentByHash(ctx, doc.Hash)
	if err != nil {
		t.Fatalf("Failed to find document by hash: %v", err)
	}
	if found.Id != added[0].Id {
		t.Fatalf("Expected ID %d, got %d", added[0].Id, found.Id)
	}

	_, err = docRepo.FindDocumentByHash(ctx, core.ContentHash("never stored"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown hash, got %v", err)
	}
}

func TestUpdateDocuments(t *testing.T) {
	docRepo, fragRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { fragRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	doc := makeTestDocument("Status", "document to update")
	added, err := docRepo.AddDocuments(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	// Update statuses
	added[0].ChunkingStatus = core.StatusCompleted
	added[0].FragmentCount = 3
	_, err = docRepo.UpdateDocuments(ctx, added[0])
	if err != nil {
		t.Fatalf("Failed to update document: %v", err)
	}

	// Verify the update persisted
	retrieved, err := docRepo.GetDocument(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.ChunkingStatus != core.StatusCompleted {
		t.Fatalf("Expected chunking status completed, got %s", retrieved.ChunkingStatus)
	}
	if retrieved.FragmentCount != 3 {
		t.Fatalf("Expected fragment count 3, got %d", retrieved.FragmentCount)
	}

	// Updating a missing document fails
	missing := makeTestDocument("Missing", "never added")
	missing.Id = core.ID(9999)
	_, err = docRepo.UpdateDocuments(ctx, missing)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	docRepo, fragRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { fragRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	docs := []*core.Document{
		makeTestDocument("A", "first document text"),
		makeTestDocument("B", "second document text"),
		makeTestDocument("C", "third document text"),
	}
	docs[1].EmbeddingStatus = core.StatusCompleted

	added, err := docRepo.AddDocuments(ctx, docs...)
	if err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}

	// List everything
	all, err := docRepo.ListDocuments(ctx, storage.DocumentFilter{})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(all))
	}

	// Results ordered by ID
	for i := 1; i < len(all); i++ {
		if all[i-1].Id >= all[i].Id {
			t.Fatalf("Expected ascending ID order, got %d before %d", all[i-1].Id, all[i].Id)
		}
	}

	// Filter by embedding status
	completed, err := docRepo.ListDocuments(ctx, storage.DocumentFilter{EmbeddingStatus: core.StatusCompleted})
	if err != nil {
		t.Fatalf("Failed to list by status: %v", err)
	}
	if len(completed) != 1 || completed[0].Title != "B" {
		t.Fatalf("Expected only document B, got %d results", len(completed))
	}

	// Limit
	limited, err := docRepo.ListDocuments(ctx, storage.DocumentFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Failed to list with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(limited))
	}

	// Soft-deleted documents are excluded by default
	if err := docRepo.SoftDeleteDocuments(ctx, added[0].Id); err != nil {
		t.Fatalf("Failed to soft delete: %v", err)
	}
	visible, err := docRepo.ListDocuments(ctx, storage.DocumentFilter{})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("Expected 2 visible documents, got %d", len(visible))
	}
	withDeleted, err := docRepo.ListDocuments(ctx, storage.DocumentFilter{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(withDeleted) != 3 {
		t.Fatalf("Expected 3 documents including deleted, got %d", len(withDeleted))
	}
}

func TestSoftDeleteDocuments(t *testing.T) {
	docRepo, fragRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { fragRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	doc := makeTestDocument("Ephemeral", "soft delete me")
	added, err := docRepo.AddDocuments(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if err := docRepo.SoftDeleteDocuments(ctx, added[0].Id); err != nil {
		t.Fatalf("Failed to soft delete: %v", err)
	}

	// The record stays readable
	retrieved, err := docRepo.GetDocument(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get soft-deleted document: %v", err)
	}
	if !retrieved.Deleted() {
		t.Fatal("Expected document to be marked deleted")
	}

	// Its content hash stays claimed, so re-ingesting surfaces a duplicate
	_, err = docRepo.AddDocuments(ctx, makeTestDocument("Again", "soft delete me"))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey after soft delete, got %v", err)
	}

	// Missing documents fail
	if err := docRepo.SoftDeleteDocuments(ctx, core.ID(12345)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDocuments(t *testing.T) {
	docRepo, fragRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { fragRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	doc := makeTestDocument("Purge", "hard delete me")
	added, err := docRepo.AddDocuments(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if err := docRepo.DeleteDocuments(ctx, added[0].Id); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}

	// Verify it's gone
	_, err = docRepo.GetDocument(ctx, added[0].Id)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}

	// The hash index entry is released with the record
	_, err = docRepo.AddDocuments(ctx, makeTestDocument("Reborn", "hard delete me"))
	if err != nil {
		t.Fatalf("Expected re-add after hard delete to succeed, got %v", err)
	}
}

func TestGetDocuments_Multiple(t *testing.T) {
	docRepo, fragRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { fragRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	docs := []*core.Document{
		makeTestDocument("One", "first"),
		makeTestDocument("Two", "second"),
		makeTestDocument("Three", "third"),
	}
	added, err := docRepo.AddDocuments(ctx, docs...)
	if err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}

	// Get multiple documents, including a missing ID which is skipped
	retrieved, err := docRepo.GetDocuments(ctx, added[0].Id, added[2].Id, core.ID(9999))
	if err != nil {
		t.Fatalf("Failed to get documents: %v", err)
	}

	if len(retrieved) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(retrieved))
	}
}
