package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsrag/internal/config"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"message": {"content": "hello"}}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider("test-model", srv.URL)
	got, err := p.Generate(context.Background(), "hi", 64)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected 'hello', got %q", got)
	}
}

func TestOllamaGenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider("missing", srv.URL)
	if _, err := p.Generate(context.Background(), "hi", 64); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"embeddings": [[0.1, 0.2], [0.3, 0.4]]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("embed-model", srv.URL)
	got, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 2 || len(got[0]) != 2 {
		t.Fatalf("unexpected embeddings shape: %v", got)
	}
	if got[1][0] != 0.3 {
		t.Errorf("expected 0.3, got %v", got[1][0])
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "answer"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("gpt-4o-mini", "NEWSRAG_TEST_UNSET_KEY")
	p.APIKey = "test-key"
	p.BaseURL = srv.URL

	got, err := p.Generate(context.Background(), "hi", 64)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "answer" {
		t.Errorf("expected 'answer', got %q", got)
	}
}

func TestOpenAIGenerateNoKey(t *testing.T) {
	p := NewOpenAIProvider("gpt-4o-mini", "NEWSRAG_TEST_UNSET_KEY")
	if _, err := p.Generate(context.Background(), "hi", 64); err == nil {
		t.Error("expected error without API key")
	}
}

func TestOpenAIEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data": [{"embedding": [1, 2, 3]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("text-embedding-3-small", "NEWSRAG_TEST_UNSET_KEY")
	e.APIKey = "test-key"
	e.BaseURL = srv.URL

	got, err := e.Embed(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 1 || len(got[0]) != 3 {
		t.Fatalf("unexpected embeddings shape: %v", got)
	}
}

func TestProviderForRouting(t *testing.T) {
	gen := config.Generation{
		OllamaURL: "http://localhost:11434",
		APIKeyEnv: "NEWSRAG_TEST_UNSET_KEY",
	}

	p := ProviderFor(gen, "ollama/llama3")
	op, ok := p.(*OllamaProvider)
	if !ok {
		t.Fatalf("expected OllamaProvider, got %T", p)
	}
	if op.Model != "llama3" {
		t.Errorf("expected model 'llama3', got %q", op.Model)
	}

	p = ProviderFor(gen, "gpt-3.5-turbo")
	oa, ok := p.(*OpenAIProvider)
	if !ok {
		t.Fatalf("expected OpenAIProvider, got %T", p)
	}
	if oa.Model != "gpt-3.5-turbo" {
		t.Errorf("expected model 'gpt-3.5-turbo', got %q", oa.Model)
	}
}

func TestCreateEmbedderOpenAI(t *testing.T) {
	gen := config.Generation{Provider: "openai", APIKeyEnv: "NEWSRAG_TEST_UNSET_KEY"}
	e := CreateEmbedder(gen)
	oe, ok := e.(*OpenAIEmbedder)
	if !ok {
		t.Fatalf("expected OpenAIEmbedder, got %T", e)
	}
	if oe.Model != "text-embedding-3-small" {
		t.Errorf("unexpected default model %q", oe.Model)
	}
}
