package embedding

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ai/mock"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// seedDocument stores a document with one pending fragment per content.
func seedDocument(t *testing.T, docRepo storage.DocumentRepository, fragRepo storage.FragmentRepository, contents []string) (*core.Document, []*core.Fragment) {
	t.Helper()
	ctx := context.Background()

	text := strings.Join(contents, "\n\n")
	doc := &core.Document{
		Title:            "Seed Document",
		Filename:         "seed.txt",
		Text:             text,
		Hash:             core.ContentHash(text),
		SizeBytes:        int64(len(text)),
		WordCount:        core.CountWords(text),
		CharCount:        core.CountChars(text),
		ProcessingStatus: core.StatusCompleted,
		ChunkingStatus:   core.StatusCompleted,
		EmbeddingStatus:  core.StatusPending,
		FragmentCount:    len(contents),
		Priority:         core.DefaultPriority,
	}
	added, err := docRepo.AddDocuments(ctx, doc)
	require.NoError(t, err)
	doc = added[0]

	frags := make([]*core.Fragment, len(contents))
	offset := 0
	for i, content := range contents {
		frags[i] = &core.Fragment{
			DocumentId: doc.Id,
			Position:   core.Position{Index: i, StartIndex: offset, EndIndex: offset + len(content)},
			Content:    content,
			Metadata: core.FragmentMetadata{
				WordCount:   core.CountWords(content),
				CharCount:   core.CountChars(content),
				ContentType: core.ContentText,
				Method:      core.MethodParagraph,
			},
			ProcessingStatus: core.StatusCompleted,
			EmbeddingStatus:  core.StatusPending,
		}
		offset += len(content) + 2
	}
	addedFrags, err := fragRepo.AddFragments(ctx, frags...)
	require.NoError(t, err)
	return doc, addedFrags
}

func TestProcessDocument_AllSucceed(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = testDims
	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, newTestStore(t), fragRepo, docRepo, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	doc, _ := seedDocument(t, docRepo, fragRepo, []string{
		"first fragment content here",
		"second fragment content here",
		"third fragment content here",
	})

	summary, err := p.ProcessDocument(ctx, doc.Id, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, core.StatusCompleted, summary.Status)

	reloaded, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, reloaded.EmbeddingStatus)
	assert.Nil(t, reloaded.Error)

	frags, err := fragRepo.ListFragmentsByDocument(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, frags, 3)
	for _, f := range frags {
		assert.Equal(t, core.StatusCompleted, f.EmbeddingStatus)
		assert.Len(t, f.Vector, testDims)
		assert.Equal(t, "test-model", f.Model)
		assert.Equal(t, float32(1.0), f.Confidence)
		assert.Nil(t, f.Error)
	}
}

func TestProcessDocument_InvalidVectorYieldsPartial(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			if strings.Contains(text, "poison") {
				vectors[i] = fakeVector(text, testDims-1)
				continue
			}
			vectors[i] = fakeVector(text, testDims)
		}
		return vectors, nil
	}

	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, newTestStore(t), fragRepo, docRepo, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	doc, _ := seedDocument(t, docRepo, fragRepo, []string{
		"healthy fragment one",
		"the poison fragment",
		"healthy fragment two",
		"healthy fragment three",
	})

	summary, err := p.ProcessDocument(ctx, doc.Id, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, core.StatusPartial, summary.Status)

	reloaded, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPartial, reloaded.EmbeddingStatus)
	require.NotNil(t, reloaded.Error)
	assert.Equal(t, core.ErrCodeProvider, reloaded.Error.Code)

	frags, err := fragRepo.ListFragmentsByDocument(ctx, doc.Id)
	require.NoError(t, err)
	for _, f := range frags {
		if strings.Contains(f.Content, "poison") {
			assert.Equal(t, core.StatusFailed, f.EmbeddingStatus)
			require.NotNil(t, f.Error)
			assert.Equal(t, core.ErrCodeInvalidVector, f.Error.Code)
			assert.Equal(t, 0, f.Error.RetryCount)
			assert.Empty(t, f.Vector)
			continue
		}
		assert.Equal(t, core.StatusCompleted, f.EmbeddingStatus)
		assert.Len(t, f.Vector, testDims)
	}
}

func TestProcessDocument_AllFail(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, &ai.ProviderError{StatusCode: http.StatusServiceUnavailable, Message: "down"}
	}

	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, newTestStore(t), fragRepo, docRepo, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	doc, _ := seedDocument(t, docRepo, fragRepo, []string{"fragment one", "fragment two"})

	summary, err := p.ProcessDocument(ctx, doc.Id, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, core.StatusFailed, summary.Status)

	reloaded, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, reloaded.EmbeddingStatus)
	require.NotNil(t, reloaded.Error)

	frags, err := fragRepo.ListFragmentsByDocument(ctx, doc.Id)
	require.NoError(t, err)
	for _, f := range frags {
		assert.Equal(t, core.StatusFailed, f.EmbeddingStatus)
		require.NotNil(t, f.Error)
		assert.Equal(t, core.ErrCodeProvider, f.Error.Code)
	}
}

func TestProcessDocument_SkipsCompletedWithoutOverwrite(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = testDims
	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, newTestStore(t), fragRepo, docRepo, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	doc, _ := seedDocument(t, docRepo, fragRepo, []string{"only fragment here"})

	_, err = p.ProcessDocument(ctx, doc.Id, ProcessOptions{})
	require.NoError(t, err)
	embedder.Reset()

	summary, err := p.ProcessDocument(ctx, doc.Id, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total, "completed fragments are not reselected")
	assert.Equal(t, core.StatusCompleted, summary.Status)
	assert.Equal(t, 0, embedder.CallCount(), "re-running a completed document is a no-op")
}

func TestProcessDocument_OverwriteServedFromCache(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = testDims
	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, newTestStore(t), fragRepo, docRepo, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	doc, _ := seedDocument(t, docRepo, fragRepo, []string{"fragment one", "fragment two"})

	_, err = p.ProcessDocument(ctx, doc.Id, ProcessOptions{})
	require.NoError(t, err)
	embedder.Reset()

	summary, err := p.ProcessDocument(ctx, doc.Id, ProcessOptions{Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total, "overwrite reselects completed fragments")
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Cached, "unchanged content is served from cache")
	assert.Equal(t, 0, embedder.CallCount())
}

func TestReprocessFailed_TargetsOnlyFailed(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			if strings.Contains(text, "poison") {
				vectors[i] = fakeVector(text, testDims+3)
				continue
			}
			vectors[i] = fakeVector(text, testDims)
		}
		return vectors, nil
	}

	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, newTestStore(t), fragRepo, docRepo, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	doc, _ := seedDocument(t, docRepo, fragRepo, []string{
		"healthy fragment", "poison fragment", "another poison piece", "last healthy one",
	})

	summary, err := p.ProcessDocument(ctx, doc.Id, ProcessOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Failed)
	require.Equal(t, core.StatusPartial, summary.Status)

	// The provider recovers; only the failed fragments go back out.
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return fakeVectors(texts, testDims), nil
	}

	summary, err = p.ReprocessFailed(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total, "only failed fragments are selected")
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, core.StatusCompleted, summary.Status)

	reloaded, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, reloaded.EmbeddingStatus)
	assert.Nil(t, reloaded.Error, "a fully embedded document sheds its error record")

	frags, err := fragRepo.ListFragmentsByDocument(ctx, doc.Id)
	require.NoError(t, err)
	for _, f := range frags {
		assert.Equal(t, core.StatusCompleted, f.EmbeddingStatus)
		assert.Nil(t, f.Error)
	}
}

func TestReprocessFailed_BumpsRetryCount(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, &ai.ProviderError{StatusCode: http.StatusForbidden, Message: "denied"}
	}

	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, newTestStore(t), fragRepo, docRepo, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	doc, _ := seedDocument(t, docRepo, fragRepo, []string{"stubborn fragment"})

	_, err = p.ProcessDocument(ctx, doc.Id, ProcessOptions{})
	require.NoError(t, err)
	_, err = p.ReprocessFailed(ctx, doc.Id)
	require.NoError(t, err)

	frags, err := fragRepo.ListFragmentsByDocument(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	require.NotNil(t, frags[0].Error)
	assert.Equal(t, 1, frags[0].Error.RetryCount, "second failure carries the retry counter forward")
}

func TestProcessDocument_NoFragments(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, newTestStore(t), fragRepo, docRepo, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	added, err := docRepo.AddDocuments(ctx, &core.Document{
		Title:           "Empty",
		Text:            "never chunked",
		Hash:            core.ContentHash("never chunked"),
		EmbeddingStatus: core.StatusPending,
	})
	require.NoError(t, err)

	summary, err := p.ProcessDocument(ctx, added[0].Id, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, core.StatusPending, summary.Status, "a document without fragments keeps its status")
	assert.Equal(t, 0, embedder.CallCount())
}

func TestProcessDocument_MissingDocument(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	p := newTestPipeline(t, embedder, newTestStore(t))

	_, err := p.ProcessDocument(context.Background(), core.ID(99999), ProcessOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeriveEmbeddingStatus(t *testing.T) {
	frag := func(status core.Status) *core.Fragment {
		return &core.Fragment{EmbeddingStatus: status}
	}

	tests := []struct {
		name     string
		frags    []*core.Fragment
		expected core.Status
	}{
		{
			name:     "all completed",
			frags:    []*core.Fragment{frag(core.StatusCompleted), frag(core.StatusCompleted)},
			expected: core.StatusCompleted,
		},
		{
			name:     "all failed",
			frags:    []*core.Fragment{frag(core.StatusFailed), frag(core.StatusFailed)},
			expected: core.StatusFailed,
		},
		{
			name:     "completed and failed mix",
			frags:    []*core.Fragment{frag(core.StatusCompleted), frag(core.StatusFailed)},
			expected: core.StatusPartial,
		},
		{
			name:     "pending work keeps the document pending",
			frags:    []*core.Fragment{frag(core.StatusCompleted), frag(core.StatusPending)},
			expected: core.StatusPending,
		},
		{
			name:     "failed alongside pending stays pending",
			frags:    []*core.Fragment{frag(core.StatusFailed), frag(core.StatusPending)},
			expected: core.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, deriveEmbeddingStatus(tt.frags))
		})
	}
}
