package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
)

// Add embeds all documents in one call and writes them as a single batch.
// Writes are upserts keyed by document ID within the collection.
func (s *Store) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding documents: %w", err)
	}
	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(embeddings), len(docs))
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}

	for i, d := range docs {
		vec, err := json.Marshal(embeddings[i])
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding embedding: %w", err)
		}
		alts, err := json.Marshal(d.Meta.Images)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding image alts: %w", err)
		}

		_, err = tx.Exec(
			`INSERT INTO documents (id, collection, content, title, url, published_date, image_alts, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET
				content = excluded.content,
				title = excluded.title,
				url = excluded.url,
				published_date = excluded.published_date,
				image_alts = excluded.image_alts,
				embedding = excluded.embedding,
				ingested_at = datetime('now')`,
			d.ID, s.collection, d.Content, d.Meta.Title, d.Meta.URL, d.Meta.Date, string(alts), string(vec),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting document %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}

	log.Printf("Indexed %d documents into %q", len(docs), s.collection)
	return nil
}

// Search embeds the query and returns the top-k documents by cosine
// similarity, best first. An empty collection yields an empty result.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Result, error) {
	rows, err := s.conn.Query(
		`SELECT content, title, url, published_date, image_alts, embedding
		FROM documents WHERE collection = ?`, s.collection,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type candidate struct {
		result    Result
		embedding []float64
	}

	var candidates []candidate
	for rows.Next() {
		var c candidate
		var url, date, alts *string
		var vec string
		if err := rows.Scan(&c.result.Content, &c.result.Meta.Title, &url, &date, &alts, &vec); err != nil {
			return nil, err
		}
		if url != nil {
			c.result.Meta.URL = *url
		}
		if date != nil {
			c.result.Meta.Date = *date
		}
		if alts != nil && *alts != "" {
			if err := json.Unmarshal([]byte(*alts), &c.result.Meta.Images); err != nil {
				return nil, fmt.Errorf("decoding image alts: %w", err)
			}
		}
		if err := json.Unmarshal([]byte(vec), &c.embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for query", len(embeddings))
	}
	queryVec := embeddings[0]

	for i := range candidates {
		candidates[i].result.Score = cosineSimilarity(queryVec, candidates[i].embedding)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].result.Score > candidates[j].result.Score
	})

	if k < 0 {
		k = 0
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	results := make([]Result, k)
	for i := 0; i < k; i++ {
		results[i] = candidates[i].result
	}
	return results, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count() (int, error) {
	var n int
	err := s.conn.QueryRow(
		"SELECT COUNT(*) FROM documents WHERE collection = ?", s.collection,
	).Scan(&n)
	return n, err
}
