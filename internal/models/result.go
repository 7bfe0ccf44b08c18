package models

// SearchResult is a retrieved document with its similarity score attached.
// The embedded Document is a copy of stored state, never an alias, so
// callers may mutate results freely. The score is transient and never
// persisted.
type SearchResult struct {
	Document
	SimilarityScore float64 `json:"similarity_score"`
}

// QueryResult is the outcome of a full query: retrieval plus answer.
type QueryResult struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer"`
	Sources []SearchResult `json:"sources"`
	TookMS  int64          `json:"took_ms"`
}

// IngestStats summarizes one ingest call.
type IngestStats struct {
	BatchID  string `json:"batch_id"`
	Received int    `json:"received"`
	Added    int    `json:"added"`
	Skipped  int    `json:"skipped"`
	TookMS   int64  `json:"took_ms"`
}
