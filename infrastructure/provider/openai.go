package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gragdev/grag/domain/fault"
	"github.com/gragdev/grag/domain/retrieval"
)

// OpenAIEmbedder generates embeddings through an OpenAI-compatible
// embeddings endpoint. The go-openai client is safe for concurrent use,
// so Embed needs no serialization.
type OpenAIEmbedder struct {
	client *openai.Client
	info   retrieval.ModelInfo
}

// OpenAIConfig holds the connection settings for the embeddings endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	ModelID string
	Timeout time.Duration
}

// NewOpenAIEmbedder builds the client and verifies the model's output
// dimension against expectedDim with a probe request. An unreachable or
// rejecting endpoint is 3001, a dimension mismatch 3003.
func NewOpenAIEmbedder(ctx context.Context, cfg OpenAIConfig, expectedDim int) (*OpenAIEmbedder, error) {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	e := &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		info:   retrieval.NewModelInfo(cfg.ModelID, expectedDim),
	}

	probe, err := e.encode(ctx, probeText)
	if err != nil {
		return nil, fault.New(fault.CodeEmbedModelLoad, "embedding endpoint probe failed", fault.WithCause(err))
	}
	if len(probe) != expectedDim {
		return nil, fault.Newf(fault.CodeEmbedDimensionMismatch,
			"model %s produces dimension %d, config expects %d", cfg.ModelID, len(probe), expectedDim)
	}
	return e, nil
}

func (e *OpenAIEmbedder) encode(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.info.ModelID()),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != 1 {
		return nil, fault.Newf(fault.CodeEmbedEncode, "endpoint returned %d vectors for one input", len(resp.Data))
	}
	return resp.Data[0].Embedding, nil
}

// Embed encodes one text through the remote endpoint.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.encode(ctx, text)
	if err != nil {
		if _, ok := fault.As(err); ok {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, timeoutFault(err)
		}
		return nil, fault.New(fault.CodeEmbedEncode, "embedding request failed", fault.WithCause(err))
	}
	if len(vec) != e.info.Dimension() {
		return nil, fault.Newf(fault.CodeEmbedEncode,
			"endpoint produced dimension %d, expected %d", len(vec), e.info.Dimension())
	}
	return vec, nil
}

// Info returns the model identity and dimension.
func (e *OpenAIEmbedder) Info() retrieval.ModelInfo { return e.info }

var _ retrieval.Embedder = (*OpenAIEmbedder)(nil)
