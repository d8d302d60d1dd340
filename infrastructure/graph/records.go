package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"github.com/gragdev/grag/domain/fault"
	"github.com/gragdev/grag/domain/retrieval"
)

// Record marshalling. Every field access is validated; a row that does not
// match the declared shape fails with 2005 instead of being guessed at.

func hitFromRecord(record *db.Record) (retrieval.Hit, error) {
	chunkID, err := stringField(record, "chunk_id")
	if err != nil {
		return retrieval.Hit{}, err
	}
	chunkText, err := stringField(record, "chunk_text")
	if err != nil {
		return retrieval.Hit{}, err
	}
	score, err := floatField(record, "score")
	if err != nil {
		return retrieval.Hit{}, err
	}
	return retrieval.NewHit(chunkID, chunkText, score), nil
}

func contextFromRecord(record *db.Record) (retrieval.Context, error) {
	chunkID, err := stringField(record, "chunk_id")
	if err != nil {
		return retrieval.Context{}, err
	}
	articleTitle, err := optionalStringField(record, "article_title")
	if err != nil {
		return retrieval.Context{}, err
	}
	authorName, err := optionalStringField(record, "author_name")
	if err != nil {
		return retrieval.Context{}, err
	}
	return retrieval.NewContext(chunkID, articleTitle, authorName), nil
}

func stringField(record *db.Record, key string) (string, error) {
	raw, ok := record.Get(key)
	if !ok {
		return "", shapeError(key, "missing")
	}
	s, ok := raw.(string)
	if !ok {
		return "", shapeError(key, "not a string")
	}
	return s, nil
}

// optionalStringField accepts nil (OPTIONAL MATCH misses) as absent.
func optionalStringField(record *db.Record, key string) (string, error) {
	raw, ok := record.Get(key)
	if !ok {
		return "", shapeError(key, "missing")
	}
	if raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", shapeError(key, "not a string")
	}
	return s, nil
}

func floatField(record *db.Record, key string) (float64, error) {
	raw, ok := record.Get(key)
	if !ok {
		return 0, shapeError(key, "missing")
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	default:
		return 0, shapeError(key, "not a number")
	}
}

func shapeError(key, problem string) error {
	return fault.Newf(fault.CodeGraphResultShape, "graph returned unexpected row shape: field %s %s", key, problem)
}
