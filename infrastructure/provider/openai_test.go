package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gragdev/grag/domain/fault"
)

// fakeEmbeddingServer mimics the OpenAI embeddings endpoint. It returns a
// deterministic vector of the given dimension and counts requests.
func fakeEmbeddingServer(t *testing.T, dim int, counter *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)

		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		vec := make([]float64, dim)
		for i := range vec {
			vec[i] = 0.1 * float64(i+1)
		}

		data := make([]map[string]any, len(body.Input))
		for i := range body.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": vec,
			}
		}

		resp := map[string]any{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage":  map[string]int{"prompt_tokens": 4, "total_tokens": 4},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIEmbedder_ProbeAndEmbed(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, 3, &counter)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(context.Background(), OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		ModelID: "test-model",
	}, 3)
	require.NoError(t, err)
	require.Equal(t, int64(1), counter.Load(), "constructor sends one probe request")

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vec, 3)
	require.InDelta(t, 0.1, vec[0], 1e-6)
	require.Equal(t, "test-model", e.Info().ModelID())
	require.Equal(t, 3, e.Info().Dimension())
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, 3, &counter)
	defer srv.Close()

	_, err := NewOpenAIEmbedder(context.Background(), OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		ModelID: "test-model",
	}, 768)
	require.Error(t, err)

	fe, ok := fault.As(err)
	require.True(t, ok)
	require.Equal(t, fault.CodeEmbedDimensionMismatch, fe.Code())
}

func TestOpenAIEmbedder_UnreachableEndpoint(t *testing.T) {
	_, err := NewOpenAIEmbedder(context.Background(), OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: "http://127.0.0.1:1/v1",
		ModelID: "test-model",
	}, 3)
	require.Error(t, err)

	fe, ok := fault.As(err)
	require.True(t, ok)
	require.Equal(t, fault.CodeEmbedModelLoad, fe.Code())
}

func TestOpenAIEmbedder_EmbedFailureAfterInit(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, 3, &counter)

	e, err := NewOpenAIEmbedder(context.Background(), OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		ModelID: "test-model",
	}, 3)
	require.NoError(t, err)

	srv.Close()

	_, err = e.Embed(context.Background(), "hello")
	require.Error(t, err)

	fe, ok := fault.As(err)
	require.True(t, ok)
	require.Equal(t, fault.CodeEmbedEncode, fe.Code())
}

func TestOpenAIEmbedder_CancelledContext(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, 3, &counter)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(context.Background(), OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		ModelID: "test-model",
	}, 3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Embed(ctx, "hello")
	require.Error(t, err)

	fe, ok := fault.As(err)
	require.True(t, ok)
	require.Equal(t, fault.CodeEmbedEncode, fe.Code())
	require.Equal(t, "Timeout", fe.Details()["kind"])
}
