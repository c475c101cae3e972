package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"newsrag/internal/config"
	"newsrag/internal/index"
)

// captureIndex records batches without embedding anything.
type captureIndex struct {
	docs    []index.Document
	batches int
}

func (c *captureIndex) Add(_ context.Context, docs []index.Document) error {
	c.docs = append(c.docs, docs...)
	c.batches++
	return nil
}

func testConfig() config.Ingest {
	return config.Ingest{MaxPerFeed: 20, ArticleCharBudget: 2000, MaxImages: 3}
}

const articleOne = `<html><head><title>Election night</title></head><body>
<article>
<h1>Election night</h1>
<img src="a.jpg" alt="ballot boxes being counted">
<img src="b.jpg" alt="">
<img src="c.jpg" alt="crowd outside parliament">
<img src="d.jpg" alt="candidate waving">
<img src="e.jpg" alt="extra image beyond the cap">
<p>Votes were counted late into the night as results came in from every district.
The outcome is expected to reshape the government for years to come.</p>
</article></body></html>`

const articleTwo = `<html><head><title>Coastal storm</title></head><body>
<article><h1>Coastal storm</h1>
<p>A powerful storm battered the coastline overnight, flooding low-lying roads
and cutting power to thousands of homes before moving out to sea.</p>
</article></body></html>`

func feedXML(base string, items ...string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Test Feed</title><link>%s</link><description>test</description>
%s
</channel></rss>`, base, strings.Join(items, "\n"))
}

func itemXML(title, link, desc string) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link>
<description>%s</description><pubDate>Sat, 29 Aug 2026 10:00:00 GMT</pubDate></item>`,
		title, link, desc)
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML(srv.URL,
			itemXML("Election night", srv.URL+"/a1", "Results &amp; reactions"),
			itemXML("Coastal storm", srv.URL+"/a2", "<p>Flooding on the <b>coast</b></p>"),
		))
	})
	mux.HandleFunc("/a1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articleOne)
	})
	mux.HandleFunc("/a2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articleTwo)
	})
	mux.HandleFunc("/accents.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML(srv.URL,
			itemXML("Café notes", srv.URL+"/a3", "coffee and accents"),
		))
	})
	mux.HandleFunc("/a3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Café notes</title></head><body>
<article><h1>Café notes</h1><p>Z%s</p></article></body></html>`,
			strings.Repeat("é", 300))
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML(srv.URL,
			itemXML("Gone", srv.URL+"/missing", "no longer here"),
		))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIngestFeed(t *testing.T) {
	srv := newFeedServer(t)
	idx := &captureIndex{}
	ing := New(testConfig(), idx)

	n, err := ing.IngestFeed(context.Background(), srv.URL+"/feed.xml")
	if err != nil {
		t.Fatalf("IngestFeed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 documents, got %d", n)
	}
	if idx.batches != 1 {
		t.Errorf("expected a single batch write, got %d", idx.batches)
	}

	for _, d := range idx.docs {
		if d.Meta.Title == "" {
			t.Error("expected non-empty title metadata")
		}
		if d.ID != d.Meta.URL {
			t.Errorf("expected document id to be the article link, got %q / %q", d.ID, d.Meta.URL)
		}
	}

	first := idx.docs[0]
	if !strings.HasPrefix(first.Content, "Election night\n") {
		t.Errorf("expected content to start with the title, got %q", first.Content[:40])
	}
	if !strings.Contains(first.Content, "Results & reactions") {
		t.Error("expected decoded description in content")
	}
	if !strings.Contains(first.Content, "counted late into the night") {
		t.Error("expected extracted article body in content")
	}
	if first.Meta.Date == "" {
		t.Error("expected publish date metadata")
	}

	second := idx.docs[1]
	if strings.Contains(second.Content, "<p>") || strings.Contains(second.Content, "<b>") {
		t.Error("expected HTML stripped from description")
	}
}

func TestIngestFeedImageAlts(t *testing.T) {
	srv := newFeedServer(t)
	idx := &captureIndex{}
	ing := New(testConfig(), idx)

	if _, err := ing.IngestFeed(context.Background(), srv.URL+"/feed.xml"); err != nil {
		t.Fatalf("IngestFeed: %v", err)
	}

	alts := idx.docs[0].Meta.Images
	if len(alts) != 3 {
		t.Fatalf("expected 3 image alts, got %d: %v", len(alts), alts)
	}
	if alts[0] != "ballot boxes being counted" {
		t.Errorf("unexpected first alt %q", alts[0])
	}
	// The empty alt is skipped, so the cap lands on the fourth image.
	if alts[2] != "candidate waving" {
		t.Errorf("unexpected third alt %q", alts[2])
	}
}

func TestIngestFeedTruncatesBody(t *testing.T) {
	srv := newFeedServer(t)
	idx := &captureIndex{}
	cfg := testConfig()
	cfg.ArticleCharBudget = 50
	ing := New(cfg, idx)

	if _, err := ing.IngestFeed(context.Background(), srv.URL+"/feed.xml"); err != nil {
		t.Fatalf("IngestFeed: %v", err)
	}

	// content = title + description + truncated body
	parts := strings.SplitN(idx.docs[0].Content, "\n", 3)
	if len(parts) != 3 {
		t.Fatalf("expected three content sections, got %d", len(parts))
	}
	if len(parts[2]) > 50 {
		t.Errorf("expected body truncated to 50 chars, got %d", len(parts[2]))
	}
}

func TestIngestFeedTruncatesOnRuneBoundary(t *testing.T) {
	srv := newFeedServer(t)
	idx := &captureIndex{}
	cfg := testConfig()
	cfg.ArticleCharBudget = 50
	ing := New(cfg, idx)

	if _, err := ing.IngestFeed(context.Background(), srv.URL+"/accents.xml"); err != nil {
		t.Fatalf("IngestFeed: %v", err)
	}

	parts := strings.SplitN(idx.docs[0].Content, "\n", 3)
	if len(parts) != 3 {
		t.Fatalf("expected three content sections, got %d", len(parts))
	}
	body := parts[2]
	if !utf8.ValidString(body) {
		t.Fatalf("expected valid UTF-8 after truncation, got %q", body)
	}
	if n := utf8.RuneCountInString(body); n > 50 {
		t.Errorf("expected body truncated to 50 chars, got %d", n)
	}
}

func TestTruncateRunes(t *testing.T) {
	s := "a" + strings.Repeat("é", 100)
	got := truncateRunes(s, 50)
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid UTF-8, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 50 {
		t.Errorf("expected 50 chars, got %d", n)
	}
	if got := truncateRunes("short", 50); got != "short" {
		t.Errorf("expected short string untouched, got %q", got)
	}
	if got := truncateRunes("anything", 0); got != "anything" {
		t.Errorf("expected zero budget to disable truncation, got %q", got)
	}
}

func TestIngestFeedMaxPerFeed(t *testing.T) {
	srv := newFeedServer(t)
	idx := &captureIndex{}
	cfg := testConfig()
	cfg.MaxPerFeed = 1
	ing := New(cfg, idx)

	n, err := ing.IngestFeed(context.Background(), srv.URL+"/feed.xml")
	if err != nil {
		t.Fatalf("IngestFeed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 document with max_per_feed=1, got %d", n)
	}
}

func TestIngestFeedArticleFailureAbortsFeed(t *testing.T) {
	srv := newFeedServer(t)
	idx := &captureIndex{}
	ing := New(testConfig(), idx)

	_, err := ing.IngestFeed(context.Background(), srv.URL+"/broken.xml")
	if err == nil {
		t.Fatal("expected error when an article fetch fails")
	}
	if len(idx.docs) != 0 {
		t.Errorf("expected no documents written, got %d", len(idx.docs))
	}
}

func TestIngestFeedUnreachable(t *testing.T) {
	idx := &captureIndex{}
	ing := New(testConfig(), idx)

	_, err := ing.IngestFeed(context.Background(), "http://127.0.0.1:1/feed.xml")
	if err == nil {
		t.Fatal("expected error for unreachable feed")
	}
	if len(idx.docs) != 0 {
		t.Errorf("expected no documents written, got %d", len(idx.docs))
	}
}

func TestIngestAllSkipsFailedFeeds(t *testing.T) {
	srv := newFeedServer(t)
	idx := &captureIndex{}
	ing := New(testConfig(), idx)

	r := ing.IngestAll(context.Background(), []string{
		srv.URL + "/broken.xml",
		srv.URL + "/feed.xml",
	})
	if r.Failed != 1 {
		t.Errorf("expected 1 failed feed, got %d", r.Failed)
	}
	if r.Feeds != 1 {
		t.Errorf("expected 1 ingested feed, got %d", r.Feeds)
	}
	if r.Documents != 2 {
		t.Errorf("expected 2 documents, got %d", r.Documents)
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Hello &amp; <b>world</b></p>")
	if got != "Hello & world" {
		t.Errorf("unexpected result %q", got)
	}
}
