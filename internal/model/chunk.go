package model

// Chunk is a bounded span of uploaded scripture text produced by the
// ingestor. Chunks are immutable once created and owned by the index
// after insertion.
type Chunk struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Position int    `json:"position"`
	Text     string `json:"text"`
}

type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}
