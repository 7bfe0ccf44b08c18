// Package models defines core data structures for documents, queries, and results.
package models

// Document is the uniform unit of storage and retrieval. IDs are derived
// from the source format by the normalizer and are unique within a store.
type Document struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Clone returns a copy of the document with its own metadata map.
// Only the top-level map is copied; nested values are shared.
func (d Document) Clone() Document {
	out := d
	if d.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
