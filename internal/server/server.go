// Package server exposes the RAG pipeline over a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

// Querier answers a question using the RAG pipeline.
type Querier interface {
	Query(ctx context.Context, query, model string) (string, error)
}

// FeedIngester ingests a single feed into the index.
type FeedIngester interface {
	IngestFeed(ctx context.Context, url string) (int, error)
}

// Server is the HTTP server for the query and ingest endpoints.
type Server struct {
	rag         Querier
	ingester    FeedIngester
	defaultFeed string
	mux         *http.ServeMux
}

// New creates a new Server. defaultFeed is used when an ingest request
// carries no URL.
func New(rag Querier, ingester FeedIngester, defaultFeed string) *Server {
	s := &Server{rag: rag, ingester: ingester, defaultFeed: defaultFeed, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/query", s.handleQuery)
	s.mux.HandleFunc("/ingest", s.handleIngest)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "newsrag",
		"query":   "POST /query",
		"ingest":  "POST /ingest",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type queryRequest struct {
	Query string `json:"query"`
	Model string `json:"model"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, errors.New("query is required"))
		return
	}

	answer, err := s.rag.Query(r.Context(), req.Query, req.Model)
	if err != nil {
		log.Printf("RAG query failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Answer: answer})
}

type ingestRequest struct {
	URL string `json:"url"`
}

type ingestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// The body is optional; an absent or empty one means the default feed.
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	url := req.URL
	if url == "" {
		url = s.defaultFeed
	}

	n, err := s.ingester.IngestFeed(r.Context(), url)
	if err != nil {
		log.Printf("Ingest failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Status:  "ok",
		Message: fmt.Sprintf("Ingested %d articles from feed: %s", n, url),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Serve starts the HTTP server on the given port.
func Serve(rag Querier, ingester FeedIngester, defaultFeed string, port int) error {
	srv := New(rag, ingester, defaultFeed)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
