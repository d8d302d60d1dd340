package retrieval

// Unknown is the sentinel substituted for an absent author or article.
// Rows never carry empty strings in those fields.
const Unknown = "Unknown"

// Row is one ranked retrieval result.
type Row struct {
	author    string
	article   string
	chunkText string
	score     float64
}

// NewRow creates a new Row. Empty author/article are replaced with Unknown.
func NewRow(author, article, chunkText string, score float64) Row {
	if author == "" {
		author = Unknown
	}
	if article == "" {
		article = Unknown
	}
	return Row{
		author:    author,
		article:   article,
		chunkText: chunkText,
		score:     score,
	}
}

// Author returns the author name, never empty.
func (r Row) Author() string { return r.author }

// Article returns the article title, never empty.
func (r Row) Article() string { return r.article }

// ChunkText returns the matched chunk text.
func (r Row) ChunkText() string { return r.chunkText }

// Score returns the similarity score.
func (r Row) Score() float64 { return r.score }

// Result is an ordered set of ranked rows.
type Result struct {
	rows []Row
}

// NewResult creates a Result from rows, copying the slice.
func NewResult(rows []Row) Result {
	copied := make([]Row, len(rows))
	copy(copied, rows)
	return Result{rows: copied}
}

// Rows returns a copy of the ranked rows.
func (r Result) Rows() []Row {
	rows := make([]Row, len(r.rows))
	copy(rows, r.rows)
	return rows
}

// TotalResults returns the number of rows.
func (r Result) TotalResults() int { return len(r.rows) }
