package retrieval

import "testing"

func TestMerge_PreservesIndexOrder(t *testing.T) {
	hits := []Hit{
		NewHit("7", "first", 0.91),
		NewHit("3", "second", 0.87),
		NewHit("12", "third", 0.85),
	}
	contexts := []Context{
		NewContext("7", "A", "Alice"),
		NewContext("3", "B", "Bob"),
		NewContext("12", "C", "Carol"),
	}

	rows := Merge(hits, contexts)

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	wantText := []string{"first", "second", "third"}
	for i, row := range rows {
		if row.ChunkText() != wantText[i] {
			t.Errorf("row[%d].ChunkText() = %q, want %q", i, row.ChunkText(), wantText[i])
		}
	}
}

func TestMerge_TieBreakByChunkIDAscending(t *testing.T) {
	hits := []Hit{
		NewHit("9", "nine", 0.80),
		NewHit("4", "four", 0.80),
	}

	rows := Merge(hits, nil)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ChunkText() != "four" || rows[1].ChunkText() != "nine" {
		t.Errorf("tie not broken by chunk ID ascending: %q then %q",
			rows[0].ChunkText(), rows[1].ChunkText())
	}
}

func TestMerge_CollapsesDuplicateChunkIDs(t *testing.T) {
	hits := []Hit{
		NewHit("a", "first occurrence", 0.9),
		NewHit("a", "second occurrence", 0.8),
		NewHit("b", "other", 0.7),
	}

	rows := Merge(hits, nil)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ChunkText() != "first occurrence" {
		t.Errorf("duplicate should collapse to first occurrence, got %q", rows[0].ChunkText())
	}
}

func TestMerge_MissingContextBecomesUnknown(t *testing.T) {
	hits := []Hit{NewHit("x", "text", 0.5)}

	rows := Merge(hits, nil)

	if rows[0].Author() != Unknown || rows[0].Article() != Unknown {
		t.Errorf("missing context: author=%q article=%q, want %q",
			rows[0].Author(), rows[0].Article(), Unknown)
	}
}

func TestMerge_PartialContext(t *testing.T) {
	hits := []Hit{NewHit("x", "text", 0.5)}
	contexts := []Context{NewContext("x", "Transformers", "")}

	rows := Merge(hits, contexts)

	if rows[0].Article() != "Transformers" {
		t.Errorf("Article() = %q, want Transformers", rows[0].Article())
	}
	if rows[0].Author() != Unknown {
		t.Errorf("Author() = %q, want %q", rows[0].Author(), Unknown)
	}
}

func TestNewQuery_ClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, 5},
		{"negative uses default", -3, 5},
		{"in range passes through", 7, 7},
		{"above max clamps", 500, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuery("hello", tt.limit, 5, 50)
			if q.Limit() != tt.want {
				t.Errorf("Limit() = %d, want %d", q.Limit(), tt.want)
			}
		})
	}
}

func TestNewQuery_TrimsText(t *testing.T) {
	q := NewQuery("   ", 0, 5, 50)
	if !q.IsEmpty() {
		t.Error("whitespace-only query should normalize to empty")
	}

	q = NewQuery("  who wrote this  ", 0, 5, 50)
	if q.Text() != "who wrote this" {
		t.Errorf("Text() = %q", q.Text())
	}
}

func TestNewRow_SubstitutesUnknown(t *testing.T) {
	row := NewRow("", "", "chunk", 0.1)
	if row.Author() != Unknown || row.Article() != Unknown {
		t.Errorf("empty fields must become %q", Unknown)
	}
}

func TestResult_RowsReturnsCopy(t *testing.T) {
	result := NewResult([]Row{NewRow("a", "b", "c", 1)})

	rows := result.Rows()
	rows[0] = NewRow("mutated", "mutated", "mutated", 0)

	if result.Rows()[0].Author() != "a" {
		t.Error("Rows() must return a copy")
	}
}
