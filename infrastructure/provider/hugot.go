// Package provider supplies the embedding backends: a local ONNX model
// via hugot and an OpenAI-compatible remote endpoint.
package provider

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/gragdev/grag/domain/fault"
	"github.com/gragdev/grag/domain/retrieval"
)

// probeText is encoded once at init to learn the model's output dimension.
const probeText = "dimension probe"

// ortSingleton holds the process-wide hugot session and pipeline. The
// runtime only allows one active session per process, and inference is not
// thread-safe, so the mutex serializes both initialization and encoding.
var ortSingleton struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	mu       sync.Mutex
	ready    bool
}

// HugotEmbedder generates embeddings with a local sentence-embedding model.
// The model is loaded exactly once per process; Embed is safe for
// concurrent callers through internal serialization.
type HugotEmbedder struct {
	info retrieval.ModelInfo
}

// NewHugotEmbedder loads the model from modelDir and verifies its output
// dimension against expectedDim with a probe encode. Load failures are
// 3001, dimension mismatches 3003.
func NewHugotEmbedder(modelID, modelDir string, expectedDim int) (*HugotEmbedder, error) {
	if err := initSingleton(modelID, modelDir); err != nil {
		return nil, err
	}

	probe, err := runPipeline(probeText)
	if err != nil {
		return nil, fault.New(fault.CodeEmbedModelLoad, "embedding model probe failed", fault.WithCause(err))
	}
	if len(probe) != expectedDim {
		return nil, fault.Newf(fault.CodeEmbedDimensionMismatch,
			"model %s produces dimension %d, config expects %d", modelID, len(probe), expectedDim)
	}

	return &HugotEmbedder{
		info: retrieval.NewModelInfo(modelID, expectedDim),
	}, nil
}

func initSingleton(modelID, modelDir string) error {
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	if ortSingleton.ready {
		return nil
	}

	modelPath, err := resolveModelPath(modelID, modelDir)
	if err != nil {
		return fault.New(fault.CodeEmbedModelLoad, "embedding model not found", fault.WithCause(err))
	}

	session, err := newHugotSession()
	if err != nil {
		return fault.New(fault.CodeEmbedModelLoad, "cannot create embedding session", fault.WithCause(err))
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "query-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		_ = session.Destroy()
		return fault.New(fault.CodeEmbedModelLoad, "cannot create embedding pipeline", fault.WithCause(err))
	}

	ortSingleton.session = session
	ortSingleton.pipeline = pipeline
	ortSingleton.ready = true
	return nil
}

// resolveModelPath locates the model directory. It first tries the path
// derived from the model id, then falls back to any subdirectory of
// modelDir that carries a tokenizer.json.
func resolveModelPath(modelID, modelDir string) (string, error) {
	direct := filepath.Join(modelDir, filepath.FromSlash(modelID))
	if hasTokenizer(direct) {
		return direct, nil
	}

	entries, err := os.ReadDir(modelDir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(modelDir, entry.Name())
		if hasTokenizer(candidate) {
			return candidate, nil
		}
	}
	return "", &os.PathError{Op: "resolve", Path: filepath.Join(modelDir, modelID), Err: os.ErrNotExist}
}

func hasTokenizer(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "tokenizer.json"))
	return err == nil
}

func runPipeline(text string) ([]float32, error) {
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	result, err := ortSingleton.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, err
	}
	if len(result.Embeddings) != 1 {
		return nil, fault.Newf(fault.CodeEmbedEncode, "model returned %d vectors for one input", len(result.Embeddings))
	}
	return result.Embeddings[0], nil
}

// Embed encodes one text. The input is passed to the model verbatim; the
// model cannot be interrupted mid-encode, so a cancelled context discards
// the result afterwards and reports a timeout.
func (h *HugotEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeoutFault(err)
	}

	vec, err := runPipeline(text)
	if err != nil {
		if _, ok := fault.As(err); ok {
			return nil, err
		}
		return nil, fault.New(fault.CodeEmbedEncode, "encoding failed", fault.WithCause(err))
	}

	if err := ctx.Err(); err != nil {
		return nil, timeoutFault(err)
	}
	if len(vec) != h.info.Dimension() {
		return nil, fault.Newf(fault.CodeEmbedEncode,
			"model produced dimension %d, expected %d", len(vec), h.info.Dimension())
	}
	return vec, nil
}

// Info returns the model identity and dimension. Never fails after init.
func (h *HugotEmbedder) Info() retrieval.ModelInfo { return h.info }

func timeoutFault(cause error) error {
	return fault.New(fault.CodeEmbedEncode, "encoding timed out",
		fault.WithDetail("kind", "Timeout"),
		fault.WithCause(cause),
	)
}

var _ retrieval.Embedder = (*HugotEmbedder)(nil)
