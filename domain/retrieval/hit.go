package retrieval

// Hit is a single vector index match: the chunk's graph-native identity,
// its text, and the similarity score (higher is better).
type Hit struct {
	chunkID string
	text    string
	score   float64
}

// NewHit creates a new Hit.
func NewHit(chunkID, text string, score float64) Hit {
	return Hit{
		chunkID: chunkID,
		text:    text,
		score:   score,
	}
}

// ChunkID returns the graph-native chunk identity.
func (h Hit) ChunkID() string { return h.chunkID }

// Text returns the chunk text.
func (h Hit) Text() string { return h.text }

// Score returns the similarity score as reported by the index.
func (h Hit) Score() float64 { return h.score }

// Context is the article/author annotation reached by traversing back from
// a chunk. Either field may be absent when the graph has no such edge.
type Context struct {
	chunkID      string
	articleTitle string
	authorName   string
}

// NewContext creates a new Context. Empty strings mean the field is absent.
func NewContext(chunkID, articleTitle, authorName string) Context {
	return Context{
		chunkID:      chunkID,
		articleTitle: articleTitle,
		authorName:   authorName,
	}
}

// ChunkID returns the chunk identity this context belongs to.
func (c Context) ChunkID() string { return c.chunkID }

// ArticleTitle returns the article title, or "" when absent.
func (c Context) ArticleTitle() string { return c.articleTitle }

// AuthorName returns the author name, or "" when absent.
func (c Context) AuthorName() string { return c.authorName }
