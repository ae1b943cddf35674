package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/corpus/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	documentHashPrefix   = "dochash"
	documentIDSeq        = "docrecseq"
	fragmentRecordPrefix = "fragrec"
	fragmentDocPrefix    = "fragdoc"
	fragmentIDSeq        = "fragrecseq"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentRecordPrefix, id))
}

// makeDocumentHashKey generates a key for the content hash index.
// Format: prefix:hash
func makeDocumentHashKey(hash string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentHashPrefix, hash))
}

// makeFragmentKey generates a key for a fragment by ID.
func makeFragmentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", fragmentRecordPrefix, id))
}

// makeFragmentDocKey generates a composite key for the per-document
// position index.
// Format: prefix:documentID:position
func makeFragmentDocKey(documentID core.ID, position int) []byte {
	prefix := fragmentDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for documentID + 8 bytes for position
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	return buf
}

// makePartialFragmentDocKey generates a partial key for scanning all
// fragments of one document in position order.
// Format: prefix:documentID
func makePartialFragmentDocKey(documentID core.ID) []byte {
	prefix := fragmentDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for documentID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}
