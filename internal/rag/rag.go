// Package rag wires retrieval and generation: refine the question into a
// search query, retrieve matching articles, and answer from that context.
package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"newsrag/internal/config"
	"newsrag/internal/index"
	"newsrag/internal/llm"
)

const (
	defaultTopK   = 3
	snippetBudget = 500
)

const refinePrompt = `Refine this into a precise search query for current affairs: %s`

const answerPrompt = `You are a news analyst.

Using this current affairs context:
%s

Answer: %s`

// Searcher retrieves the top-k documents for a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]index.Result, error)
}

// Engine runs the two-step RAG pipeline.
type Engine struct {
	searcher Searcher
	gen      config.Generation
	topK     int

	// provider resolves the request model to an LLM provider.
	provider func(model string) llm.Provider
}

// New creates a new Engine.
func New(searcher Searcher, gen config.Generation) *Engine {
	return &Engine{
		searcher: searcher,
		gen:      gen,
		topK:     defaultTopK,
		provider: func(model string) llm.Provider {
			return llm.ProviderFor(gen, model)
		},
	}
}

// Refine rewrites the user's question into a search query.
func (e *Engine) Refine(ctx context.Context, userQuery, model string) (string, error) {
	p := e.provider(model)
	if p == nil {
		return "", fmt.Errorf("no LLM provider available")
	}

	resp, err := p.Generate(ctx, fmt.Sprintf(refinePrompt, userQuery), e.gen.MaxTokens)
	if err != nil {
		return "", err
	}

	refined := strings.TrimSpace(resp)
	log.Printf("Refined query: %q", refined)
	return refined, nil
}

// Query runs the full pipeline: refine, retrieve, then generate an answer
// grounded in the retrieved snippets. Provider and search errors propagate.
func (e *Engine) Query(ctx context.Context, userQuery, model string) (string, error) {
	log.Printf("RAG query: %q", userQuery)

	refined, err := e.Refine(ctx, userQuery, model)
	if err != nil {
		return "", err
	}

	results, err := e.searcher.Search(ctx, refined, e.topK)
	if err != nil {
		return "", err
	}

	p := e.provider(model)
	if p == nil {
		return "", fmt.Errorf("no LLM provider available")
	}

	prompt := fmt.Sprintf(answerPrompt, buildContext(results), userQuery)
	resp, err := p.Generate(ctx, prompt, e.gen.MaxTokens)
	if err != nil {
		return "", err
	}

	log.Println("RAG response generated")
	return strings.TrimSpace(resp), nil
}

// buildContext concatenates retrieved snippets as "title: excerpt..." blocks.
// An empty result set yields an empty context; the model still answers.
func buildContext(results []index.Result) string {
	var parts []string
	for _, r := range results {
		doc := r.Content
		if utf8.RuneCountInString(doc) > snippetBudget {
			doc = string([]rune(doc)[:snippetBudget])
		}
		parts = append(parts, fmt.Sprintf("%s: %s...", r.Meta.Title, doc))
	}
	return strings.Join(parts, "\n\n")
}
