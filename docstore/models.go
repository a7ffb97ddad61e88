package docstore

import "errors"

var ErrIndexNotFound = errors.New("index not found")

// ChunkRecord is one line of the processed corpus.
type ChunkRecord struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	URL      *string `json:"url"`
	Category string  `json:"category"`
	Faction  *string `json:"faction"`
	Date     *string `json:"date"`
	Edition  *string `json:"edition"`
}

// IndexedDoc is what gets written into a vector index for a single chunk.
type IndexedDoc struct {
	ID        string
	Text      string
	Embedding []float32
	Title     string
	Category  string
}

type SearchResult struct {
	ID       string
	Text     string
	Title    string
	Category string
	Score    float32
}

const (
	Title    = "title"
	Category = "category"
)
