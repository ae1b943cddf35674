package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/vectormath"
)

// usageRetryAttempts bounds commit retries for usage-stat updates, which
// may race with each other under concurrent searches.
const usageRetryAttempts = 3

// FragmentRepository implements storage.FragmentRepository for BadgerDB.
type FragmentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.FragmentRepository = (*FragmentRepository)(nil)

// NewFragmentRepository creates a new FragmentRepository.
func NewFragmentRepository(backend *Backend) (*FragmentRepository, error) {
	idSeq, err := backend.GetSequence(fragmentIDSeq)
	if err != nil {
		return nil, err
	}

	return &FragmentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *FragmentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *FragmentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddFragments adds fragments to storage in document order.
func (r *FragmentRepository) AddFragments(ctx context.Context, fragments ...*core.Fragment) ([]*core.Fragment, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()

		// First pass: assign IDs and link neighbours per document.
		lastByDoc := make(map[core.ID]*core.Fragment)
		for _, fragment := range fragments {
			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			fragment.Id = core.ID(nextID)

			fragment.InsertedAt = now
			fragment.UpdatedAt = now

			if prev, ok := lastByDoc[fragment.DocumentId]; ok {
				prev.NextId = fragment.Id
				fragment.PrevId = prev.Id
			}
			lastByDoc[fragment.DocumentId] = fragment
		}

		// Second pass: store records and position index entries.
		for _, fragment := range fragments {
			key := makeFragmentKey(fragment.Id)
			value := storage.MarshalFragment(fragment)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			docKey := makeFragmentDocKey(fragment.DocumentId, fragment.Position.Index)
			if err := tx.Set(docKey, storage.MarshalID(fragment.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return fragments, err
}

// UpdateFragments updates existing fragments.
func (r *FragmentRepository) UpdateFragments(ctx context.Context, fragments ...*core.Fragment) ([]*core.Fragment, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, fragment := range fragments {
			key := makeFragmentKey(fragment.Id)

			// Read old record to detect changes
			old, err := readFragment(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			// Update timestamp
			fragment.UpdatedAt = time.Now().UTC()

			// Store updated record
			value := storage.MarshalFragment(fragment)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update position index if the fragment moved
			if old.DocumentId != fragment.DocumentId || old.Position.Index != fragment.Position.Index {
				oldDocKey := makeFragmentDocKey(old.DocumentId, old.Position.Index)
				if err := tx.Delete(oldDocKey); err != nil {
					return err
				}
				newDocKey := makeFragmentDocKey(fragment.DocumentId, fragment.Position.Index)
				if err := tx.Set(newDocKey, storage.MarshalID(fragment.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return fragments, err
}

// GetFragment retrieves a single fragment by ID.
func (r *FragmentRepository) GetFragment(ctx context.Context, id core.ID) (*core.Fragment, error) {
	var result *core.Fragment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeFragmentKey(id)
		var err error
		result, err = readFragment(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetFragments retrieves multiple fragments by their IDs.
func (r *FragmentRepository) GetFragments(ctx context.Context, ids ...core.ID) ([]*core.Fragment, error) {
	var result []*core.Fragment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeFragmentKey(id)
			fragment, err := readFragment(tx, key)
			if err != nil {
				return err
			}
			if fragment != nil {
				result = append(result, fragment)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListFragmentsByDocument retrieves a document's non-deleted fragments in
// position order.
func (r *FragmentRepository) ListFragmentsByDocument(ctx context.Context, documentID core.ID) ([]*core.Fragment, error) {
	var results []*core.Fragment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialFragmentDocKey(documentID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			// Check if key still has our documentID prefix
			if len(key) < len(startKey) {
				break
			}
			if slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			// Read the fragmentID from the value
			var fragmentID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				fragmentID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full record
			fragment, err := readFragment(tx, makeFragmentKey(fragmentID))
			if err != nil {
				return err
			}
			if fragment != nil && !fragment.Deleted() {
				results = append(results, fragment)
			}
		}
		return nil
	}, false)

	return results, err
}

// ListFragments retrieves fragments matching the filter, ordered by ID.
func (r *FragmentRepository) ListFragments(ctx context.Context, filter storage.FragmentFilter) ([]*core.Fragment, error) {
	var results []*core.Fragment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(fragmentRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var fragment *core.Fragment
			err := iter.Item().Value(func(val []byte) error {
				var err error
				fragment, err = storage.UnmarshalFragment(val)
				return err
			})
			if err != nil {
				return err
			}
			if fragment == nil {
				continue
			}
			if fragment.Deleted() && !filter.IncludeDeleted {
				continue
			}
			if filter.DocumentId != 0 && fragment.DocumentId != filter.DocumentId {
				continue
			}
			if filter.ProcessingStatus != 0 && fragment.ProcessingStatus != filter.ProcessingStatus {
				continue
			}
			if filter.EmbeddingStatus != 0 && fragment.EmbeddingStatus != filter.EmbeddingStatus {
				continue
			}
			results = append(results, fragment)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Primary keys sort as text, so order by ID explicitly
	slices.SortFunc(results, func(a, b *core.Fragment) int {
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})

	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}

	return results, nil
}

// UpdateEmbeddingStatuses bulk-updates the embedding status of fragments.
func (r *FragmentRepository) UpdateEmbeddingStatuses(ctx context.Context, status core.Status, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, id := range ids {
			key := makeFragmentKey(id)
			fragment, err := readFragment(tx, key)
			if err != nil {
				return err
			}
			if fragment == nil {
				return storage.ErrNotFound
			}

			fragment.EmbeddingStatus = status
			fragment.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalFragment(fragment)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteFragmentsByDocument physically removes all fragments of a document.
func (r *FragmentRepository) DeleteFragmentsByDocument(ctx context.Context, documentID core.ID) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Collect index entries first, then delete: mutating while
		// iterating confuses the iterator.
		type entry struct {
			indexKey   []byte
			fragmentID core.ID
		}
		var entries []entry

		startKey := makePartialFragmentDocKey(documentID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			item := iter.Item()
			key := item.Key()
			if len(key) < len(startKey) {
				break
			}
			if slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var fragmentID core.ID
			if err := item.Value(func(val []byte) error {
				var err error
				fragmentID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				iter.Close()
				return err
			}
			entries = append(entries, entry{indexKey: item.KeyCopy(nil), fragmentID: fragmentID})
		}
		iter.Close()

		for _, e := range entries {
			if err := tx.Delete(e.indexKey); err != nil {
				return err
			}
			fragKey := makeFragmentKey(e.fragmentID)
			if _, err := tx.Get(fragKey); err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			if err := tx.Delete(fragKey); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteFragments physically removes fragments by their IDs.
func (r *FragmentRepository) DeleteFragments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeFragmentKey(id)

			// Read record to get metadata for index cleanup
			fragment, err := readFragment(tx, key)
			if err != nil {
				return err
			}
			if fragment == nil {
				return storage.ErrNotFound
			}

			// Delete from position index
			docKey := makeFragmentDocKey(fragment.DocumentId, fragment.Position.Index)
			if err := tx.Delete(docKey); err != nil {
				return err
			}

			// Delete primary record
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountFragmentsByDocument returns the number of non-deleted fragments
// belonging to a document.
func (r *FragmentRepository) CountFragmentsByDocument(ctx context.Context, documentID core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialFragmentDocKey(documentID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) {
				break
			}
			if slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var fragmentID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				fragmentID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			fragment, err := readFragment(tx, makeFragmentKey(fragmentID))
			if err != nil {
				return err
			}
			if fragment != nil && !fragment.Deleted() {
				count++
			}
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindSimilar scans embedded fragments and ranks them against a vector.
func (r *FragmentRepository) FindSimilar(ctx context.Context, vector []float32, opts storage.SimilarOptions) ([]*core.FragmentMatch, error) {
	if len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	metric := opts.Metric
	if metric == 0 {
		metric = vectormath.MetricCosine
	}
	if !metric.Valid() {
		return nil, storage.ErrInvalidQuery
	}

	var docFilter map[core.ID]bool
	if len(opts.DocumentIds) > 0 {
		docFilter = make(map[core.ID]bool, len(opts.DocumentIds))
		for _, id := range opts.DocumentIds {
			docFilter[id] = true
		}
	}
	var typeFilter map[core.ContentType]bool
	if len(opts.ContentTypes) > 0 {
		typeFilter = make(map[core.ContentType]bool, len(opts.ContentTypes))
		for _, ct := range opts.ContentTypes {
			typeFilter[ct] = true
		}
	}

	var results []*core.FragmentMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(fragmentRecordPrefix + ":")
		iter := tx.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var fragment *core.Fragment
			err := iter.Item().Value(func(val []byte) error {
				var err error
				fragment, err = storage.UnmarshalFragment(val)
				return err
			})
			if err != nil {
				return err
			}
			if fragment == nil || fragment.Deleted() {
				continue
			}

			// Skip fragments without a usable embedding
			if !fragment.Embedded() || len(fragment.Vector) != len(vector) {
				continue
			}

			if fragment.Id == opts.Exclude && opts.Exclude != 0 {
				continue
			}
			if docFilter != nil && !docFilter[fragment.DocumentId] {
				continue
			}
			if typeFilter != nil && !typeFilter[fragment.Metadata.ContentType] {
				continue
			}

			similarity, err := vectormath.Similarity(vector, fragment.Vector, metric)
			if err != nil {
				return err
			}

			// Filter by threshold
			if similarity >= opts.MinSimilarity {
				results = append(results, &core.FragmentMatch{
					Fragment:   fragment,
					Similarity: similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.FragmentMatch) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return 0
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	return results, nil
}

// RecordUsage atomically folds one retrieval into a fragment's usage stats.
func (r *FragmentRepository) RecordUsage(ctx context.Context, id core.ID, relevance float32, topResult bool) error {
	var err error
	for attempt := 0; attempt < usageRetryAttempts; attempt++ {
		err = r.backend.WithTx(func(tx *badger.Txn) error {
			key := makeFragmentKey(id)
			fragment, err := readFragment(tx, key)
			if err != nil {
				return err
			}
			if fragment == nil {
				return storage.ErrNotFound
			}

			fragment.Usage.QueryCount++
			fragment.Usage.RetrievalCount++
			n := fragment.Usage.RetrievalCount
			fragment.Usage.AvgRelevance = (fragment.Usage.AvgRelevance*float64(n-1) + float64(relevance)) / float64(n)
			if topResult {
				fragment.Usage.TopResultCount++
			}
			fragment.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalFragment(fragment)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if err != badger.ErrConflict {
			return err
		}
	}
	return err
}

// readFragment reads a fragment from the transaction.
func readFragment(tx *badger.Txn, key []byte) (*core.Fragment, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var fragment *core.Fragment
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		fragment, unmarshalErr = storage.UnmarshalFragment(val)
		return unmarshalErr
	})
	return fragment, err
}
