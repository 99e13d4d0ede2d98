package domain

import "time"

// Passage is a chunk of ingested source text with provenance metadata, the
// unit of retrieval. Passages are produced by the external crawler and are
// immutable once indexed; the only mutation the index supports is a wholesale
// collection rebuild.
type Passage struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Title        string    `json:"title"`
	Source       string    `json:"source"`
	URL          string    `json:"url"`
	PublishedAt  string    `json:"published_at"`
	Category     string    `json:"category"`
	WordCount    int       `json:"word_count"`
	QualityScore float64   `json:"quality_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// RetrievalCandidate is a scored passage returned from similarity search.
// Transient: produced per query, discarded after response assembly.
type RetrievalCandidate struct {
	Text     string  `json:"text"`
	Title    string  `json:"title"`
	Source   string  `json:"source"`
	URL      string  `json:"url"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// SourceRef is the citation attached to a generated answer.
type SourceRef struct {
	Title  string  `json:"title"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Answer is the orchestrator's result for a single query.
type Answer struct {
	Text         string      `json:"text"`
	Sources      []SourceRef `json:"sources"`
	ContextCount int         `json:"context_count"`
	// Fallback is set for canned responses (greetings, degraded mode) that
	// bypassed retrieval and generation.
	Fallback bool `json:"fallback,omitempty"`
	// Cached is set when the answer was served from the answer cache.
	Cached bool `json:"cached,omitempty"`
}

// CachedAnswer is a previously generated answer stored under the normalized
// query hash. Superseded wholesale by a newer entry, expires by TTL.
type CachedAnswer struct {
	Answer   string      `json:"answer"`
	Sources  []SourceRef `json:"sources"`
	CachedAt time.Time   `json:"cached_at"`
}

// CollectionStats reports the state of the backing vector collection.
type CollectionStats struct {
	PointsCount int    `json:"points_count"`
	Status      string `json:"status"`
}
