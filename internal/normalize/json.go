package normalize

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hyperjump/kotae/internal/models"
)

// normalizeJSON emits one document per top-level array element, one per
// top-level object key, or a single document for a scalar.
func normalizeJSON(content []byte) ([]models.Document, error) {
	var data interface{}
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %w", ErrParse, err)
	}

	switch v := data.(type) {
	case []interface{}:
		docs := make([]models.Document, 0, len(v))
		for i, item := range v {
			docs = append(docs, models.Document{
				ID:   fmt.Sprintf("json_%d", i),
				Text: jsonText(item),
				Metadata: map[string]interface{}{
					"source":   "json",
					"index":    i,
					"original": item,
				},
			})
		}
		return docs, nil

	case map[string]interface{}:
		// Keys are sorted so document order is deterministic.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		docs := make([]models.Document, 0, len(v))
		for _, k := range keys {
			docs = append(docs, models.Document{
				ID:   "json_" + k,
				Text: jsonText(v[k]),
				Metadata: map[string]interface{}{
					"source":   "json",
					"key":      k,
					"original": v[k],
				},
			})
		}
		return docs, nil

	default:
		return []models.Document{{
			ID:   "json_0",
			Text: jsonText(v),
			Metadata: map[string]interface{}{
				"source":   "json",
				"original": v,
			},
		}}, nil
	}
}

// jsonText renders a decoded JSON value as embeddable text. Strings pass
// through unquoted; everything else keeps its compact JSON form.
func jsonText(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
