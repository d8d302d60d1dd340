package retrieval

import "sort"

// Merge joins vector hits with their expansion contexts into ranked rows.
//
// The output preserves the index order of hits (descending score); rows
// with equal scores are reordered by chunk ID ascending so the ranking is
// deterministic across runs. Duplicate chunk IDs collapse to their first
// occurrence. A hit without a matching context, or a context with absent
// fields, gets the Unknown sentinel.
func Merge(hits []Hit, contexts []Context) []Row {
	byID := make(map[string]Context, len(contexts))
	for _, c := range contexts {
		if _, seen := byID[c.ChunkID()]; !seen {
			byID[c.ChunkID()] = c
		}
	}

	type ranked struct {
		hit Hit
		row Row
	}

	seen := make(map[string]bool, len(hits))
	merged := make([]ranked, 0, len(hits))
	for _, hit := range hits {
		if seen[hit.ChunkID()] {
			continue
		}
		seen[hit.ChunkID()] = true

		ctx := byID[hit.ChunkID()]
		merged = append(merged, ranked{
			hit: hit,
			row: NewRow(ctx.AuthorName(), ctx.ArticleTitle(), hit.Text(), hit.Score()),
		})
	}

	// The index already orders by score descending; the stable sort only
	// rewrites ties, breaking them by chunk ID ascending.
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].hit.Score() != merged[j].hit.Score() {
			return merged[i].hit.Score() > merged[j].hit.Score()
		}
		return merged[i].hit.ChunkID() < merged[j].hit.ChunkID()
	})

	rows := make([]Row, len(merged))
	for i, m := range merged {
		rows[i] = m.row
	}
	return rows
}
