package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
	"github.com/tesfayh/ulss9-assistant/internal/observability/logging"
)

func testProvider(t *testing.T, handler http.Handler) (*Provider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	provider := NewProvider(Config{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: server.URL,
	}, logging.NewJSONLogger("test", "error"))
	return provider, server
}

func TestProviderNotConfiguredWithoutKey(t *testing.T) {
	provider := NewProvider(Config{}, logging.NewJSONLogger("test", "error"))

	if _, err := provider.Client(); !domain.IsKind(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if provider.Configured() || provider.Initialized() {
		t.Fatalf("provider must report unconfigured state")
	}
}

func TestGenerateGroundedSendsFileSearchTool(t *testing.T) {
	var captured generateContentRequest
	provider, _ := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Gli orari sono 7-12."}]}}]}`))
	}))

	gen := NewGenerator(provider)
	resp, err := gen.GenerateGrounded(context.Background(), ports.GroundedRequest{
		Message:           "orari Legnago?",
		SystemInstruction: "Sei l'assistente.",
		StoreNames:        []string{"fileSearchStores/abc"},
		Temperature:       0.7,
	})
	if err != nil {
		t.Fatalf("GenerateGrounded() error = %v", err)
	}
	if resp.Text != "Gli orari sono 7-12." {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].FileSearch == nil {
		t.Fatalf("expected file search tool, got %+v", captured.Tools)
	}
	if captured.Tools[0].FileSearch.FileSearchStoreNames[0] != "fileSearchStores/abc" {
		t.Fatalf("unexpected store names: %v", captured.Tools[0].FileSearch.FileSearchStoreNames)
	}
	if captured.GenerationConfig == nil || *captured.GenerationConfig.Temperature != 0.7 {
		t.Fatalf("unexpected generation config: %+v", captured.GenerationConfig)
	}
	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "Sei l'assistente." {
		t.Fatalf("system instruction not sent")
	}
}

func TestGenerateGroundedMapsGroundingChunks(t *testing.T) {
	provider, _ := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{
			"content":{"parts":[{"text":"risposta"}]},
			"groundingMetadata":{"groundingChunks":[
				{"retrievedContext":{
					"title":"orari.md",
					"uri":"https://aulss9.veneto.it/orari",
					"text":"Il punto prelievi apre alle 7.",
					"customMetadata":[
						{"key":"title","stringValue":"Orari punto prelievi"},
						{"key":"source_type","stringValue":"website"}
					]
				}},
				{"retrievedContext":{"text":"solo testo"}}
			]}
		}]}`))
	}))

	gen := NewGenerator(provider)
	resp, err := gen.GenerateGrounded(context.Background(), ports.GroundedRequest{Message: "orari?"})
	if err != nil {
		t.Fatalf("GenerateGrounded() error = %v", err)
	}
	if len(resp.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(resp.Chunks))
	}

	first := resp.Chunks[0]
	if first.Content != "Il punto prelievi apre alle 7." {
		t.Fatalf("unexpected content: %q", first.Content)
	}
	if first.Metadata["title"] != "orari.md" || first.Metadata["url"] != "https://aulss9.veneto.it/orari" {
		t.Fatalf("unexpected top-level bag: %v", first.Metadata)
	}
	if first.Context == nil || len(first.Context.Entries) != 2 {
		t.Fatalf("expected custom metadata entries, got %+v", first.Context)
	}
	if first.Context.Entries[0].Key != "title" || first.Context.Entries[0].Value != "Orari punto prelievi" {
		t.Fatalf("unexpected entry: %+v", first.Context.Entries[0])
	}
	if resp.Chunks[1].Metadata != nil || resp.Chunks[1].Context != nil {
		t.Fatalf("bare chunk must carry no metadata: %+v", resp.Chunks[1])
	}
}

func TestGenerateJSONSetsSchemaAndMimeType(t *testing.T) {
	var captured generateContentRequest
	provider, _ := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"stores\":[\"hours\"]}"}]}}]}`))
	}))

	gen := NewGenerator(provider)
	schema := map[string]any{"type": "object"}
	out, err := gen.GenerateJSONFromPrompt(context.Background(), "classifica", schema, 0.2)
	if err != nil {
		t.Fatalf("GenerateJSONFromPrompt() error = %v", err)
	}
	if !strings.Contains(out, `"hours"`) {
		t.Fatalf("unexpected output: %q", out)
	}
	if captured.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatalf("expected json mime type, got %q", captured.GenerationConfig.ResponseMimeType)
	}
	if captured.GenerationConfig.ResponseJSONSchema == nil {
		t.Fatalf("expected schema in request")
	}
}

func TestGenerateIncludesHTTPBodyInError(t *testing.T) {
	provider, _ := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))

	gen := NewGenerator(provider)
	_, err := gen.GenerateFromPrompt(context.Background(), "ciao", 0.5)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected typed status error, got %v", err)
	}
}

func TestClassifyGeminiError(t *testing.T) {
	retryable := classifyGeminiError(&HTTPStatusError{StatusCode: http.StatusServiceUnavailable})
	if !retryable.Retryable || !retryable.RecordFailure {
		t.Fatalf("5xx must be retryable: %+v", retryable)
	}

	terminal := classifyGeminiError(&HTTPStatusError{StatusCode: http.StatusBadRequest})
	if terminal.Retryable || terminal.RecordFailure {
		t.Fatalf("4xx must be terminal: %+v", terminal)
	}

	canceled := classifyGeminiError(context.Canceled)
	if canceled.Retryable || canceled.RecordFailure {
		t.Fatalf("cancellation must not trip the breaker: %+v", canceled)
	}
}
