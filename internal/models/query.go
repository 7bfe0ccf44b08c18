package models

import "fmt"

// QueryRequest is a retrieval-and-answer request.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate ensures the request has valid fields and sets defaults.
// Returns an error if the query is empty; otherwise normalizes TopK.
func (q *QueryRequest) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = 5
	}
	if q.TopK > 100 {
		q.TopK = 100
	}
	return nil
}
