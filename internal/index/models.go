package index

// Metadata is the per-document metadata stored alongside the embedding.
type Metadata struct {
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Date   string   `json:"date"`
	Images []string `json:"images"`
}

// Document is a record to be embedded and indexed. ID is the article link,
// so re-ingesting the same article replaces its record instead of colliding.
type Document struct {
	ID      string
	Content string
	Meta    Metadata
}

// Result is a single similarity search hit.
type Result struct {
	Content string
	Meta    Metadata
	Score   float64
}
