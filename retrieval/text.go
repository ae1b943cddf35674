package retrieval

import (
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/corpus/core"
)

// NormalizeQuery lowercases a query and collapses whitespace runs, so
// trivially different spellings of the same question share a cache
// entry and a recent-queries line.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// canonicalKey reduces a normalized query plus its resolved options to
// a stable content hash. Ids and types are hashed as sorted copies, so
// option order never splits the cache.
func canonicalKey(normalized string, opts SearchOptions) string {
	var b strings.Builder
	b.WriteString(normalized)
	fmt.Fprintf(&b, "|limit=%d|threshold=%g", opts.Limit, opts.Threshold)

	if len(opts.DocumentIds) > 0 {
		ids := slices.Clone(opts.DocumentIds)
		slices.Sort(ids)
		b.WriteString("|docs=")
		for i, id := range ids {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%d", id)
		}
	}
	if len(opts.ContentTypes) > 0 {
		types := slices.Clone(opts.ContentTypes)
		slices.Sort(types)
		b.WriteString("|types=")
		for i, ct := range types {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(ct.String())
		}
	}
	return core.ContentHash(b.String())
}
