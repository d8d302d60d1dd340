package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveModelPath_DirectHit(t *testing.T) {
	modelDir := t.TempDir()
	direct := filepath.Join(modelDir, "all-MiniLM-L6-v2")
	require.NoError(t, os.MkdirAll(direct, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(direct, "tokenizer.json"), []byte(`{}`), 0o644))

	got, err := resolveModelPath("all-MiniLM-L6-v2", modelDir)
	require.NoError(t, err)
	require.Equal(t, direct, got)
}

func TestResolveModelPath_NamespacedModelID(t *testing.T) {
	modelDir := t.TempDir()
	nested := filepath.Join(modelDir, "sentence-transformers", "all-MiniLM-L6-v2")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "tokenizer.json"), []byte(`{}`), 0o644))

	got, err := resolveModelPath("sentence-transformers/all-MiniLM-L6-v2", modelDir)
	require.NoError(t, err)
	require.Equal(t, nested, got)
}

func TestResolveModelPath_FallbackScan(t *testing.T) {
	modelDir := t.TempDir()
	other := filepath.Join(modelDir, "downloaded-model")
	require.NoError(t, os.MkdirAll(other, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(other, "tokenizer.json"), []byte(`{}`), 0o644))

	got, err := resolveModelPath("some/other-id", modelDir)
	require.NoError(t, err)
	require.Equal(t, other, got)
}

func TestResolveModelPath_SkipsIncompleteDirs(t *testing.T) {
	modelDir := t.TempDir()
	incomplete := filepath.Join(modelDir, "incomplete-model")
	require.NoError(t, os.MkdirAll(incomplete, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(incomplete, "config.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "README.md"), []byte("readme"), 0o644))

	_, err := resolveModelPath("missing", modelDir)
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveModelPath_MissingModelDir(t *testing.T) {
	_, err := resolveModelPath("any", filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
