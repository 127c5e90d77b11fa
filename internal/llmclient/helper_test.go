package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/browsepilot/internal/config"
)

// getValidModelConfig returns a valid ModelConfig for testing purposes.
func getValidModelConfig() config.ModelConfig {
	return config.ModelConfig{
		Provider:           config.ProviderGemini,
		Name:               "test-model",
		APIKey:             "test-api-key",
		APITimeout:         5 * time.Second,
		Temperature:        0.2,
		CandidateCount:     1,
		MaxOutputTokens:    512,
		SystemInstructions: "You drive a browser.",
		Retry: config.RetryConfig{
			MaxElapsedTime: 10 * time.Second,
			MaxInterval:    time.Second,
		},
	}
}

// setupGeminiClient points a GeminiClient at a test server.
func setupGeminiClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.ModelConfig)) (*GeminiClient, *observer.ObservedLogs) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	core, logs := observer.New(zap.DebugLevel)
	cfg := getValidModelConfig()
	cfg.Endpoint = server.URL
	for _, m := range mutate {
		m(&cfg)
	}

	client, err := NewGeminiClient(context.Background(), cfg, zap.New(core))
	require.NoError(t, err)
	return client, logs
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
