// Package ingest turns RSS feeds into indexed article documents.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"newsrag/internal/config"
	"newsrag/internal/index"
)

// Indexer writes batches of documents to the vector index.
type Indexer interface {
	Add(ctx context.Context, docs []index.Document) error
}

// Result holds the results of ingesting the full feed source list.
type Result struct {
	Feeds     int
	Documents int
	Failed    int
}

// Ingester fetches feeds and articles and writes records to the index.
type Ingester struct {
	cfg    config.Ingest
	idx    Indexer
	parser *gofeed.Parser
	client *http.Client
}

// New creates a new Ingester.
func New(cfg config.Ingest, idx Indexer) *Ingester {
	return &Ingester{
		cfg:    cfg,
		idx:    idx,
		parser: gofeed.NewParser(),
		client: &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// IngestAll ingests every feed URL in the list. A failing feed is logged and
// skipped; the rest keep going.
func (ing *Ingester) IngestAll(ctx context.Context, urls []string) *Result {
	if len(urls) == 0 {
		log.Println("No feed URLs to ingest.")
		return &Result{}
	}

	log.Printf("Ingesting from %d feed sources.", len(urls))
	r := &Result{}
	for _, u := range urls {
		n, err := ing.IngestFeed(ctx, u)
		if err != nil {
			log.Printf("Failed to ingest %s: %v", u, err)
			r.Failed++
			continue
		}
		r.Feeds++
		r.Documents += n
	}
	return r
}

// IngestFeed fetches one feed, fetches each linked article, and writes the
// resulting records to the index in a single batch. A failure on any article
// aborts the whole feed; nothing is written.
func (ing *Ingester) IngestFeed(ctx context.Context, feedURL string) (int, error) {
	log.Printf("Fetching news from %s", feedURL)

	feed, err := ing.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return 0, fmt.Errorf("parsing feed: %w", err)
	}

	var docs []index.Document
	for _, item := range feed.Items {
		if len(docs) >= ing.cfg.MaxPerFeed {
			break
		}

		link := strings.TrimSpace(item.Link)
		title := strings.TrimSpace(item.Title)
		if link == "" || title == "" {
			continue
		}

		text, alts, err := ing.fetchArticle(ctx, link)
		if err != nil {
			return 0, fmt.Errorf("fetching article %s: %w", link, err)
		}

		desc := stripHTML(item.Description)
		date := item.Published
		if date == "" {
			date = item.Updated
		}

		docs = append(docs, index.Document{
			ID:      link,
			Content: title + "\n" + desc + "\n" + text,
			Meta: index.Metadata{
				Title:  title,
				URL:    link,
				Date:   date,
				Images: alts,
			},
		})
		log.Printf("Processed article %d: %s", len(docs), title)
	}

	if err := ing.idx.Add(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// fetchArticle downloads an article page and extracts its readable text plus
// up to MaxImages image alt-text strings.
func (ing *Ingester) fetchArticle(ctx context.Context, articleURL string) (string, []string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("User-Agent", "newsrag/1.0 (news RAG demo)")

	resp, err := ing.client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", nil, fmt.Errorf("article returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", nil, fmt.Errorf("extracting content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if budget := ing.cfg.ArticleCharBudget; budget > 0 {
		text = truncateRunes(text, budget)
	}

	alts, err := imageAlts(body, ing.cfg.MaxImages)
	if err != nil {
		return "", nil, err
	}
	return text, alts, nil
}

// imageAlts collects the first maxImages non-empty img alt attributes.
func imageAlts(body []byte, maxImages int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing article HTML: %w", err)
	}

	var alts []string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(alts) >= maxImages {
			return false
		}
		if alt := strings.TrimSpace(sel.AttrOr("alt", "")); alt != "" {
			alts = append(alts, alt)
		}
		return true
	})
	return alts, nil
}

// truncateRunes caps s at n characters without splitting a multi-byte rune.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// stripHTML removes tags and decodes common entities from feed descriptions.
func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
