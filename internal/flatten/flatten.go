// Package flatten converts a decoded JSON document into a flat list of
// dotted-path/value pairs for the developer-facing raw view.
package flatten

import (
	"encoding/json"
	"sort"
)

type Pair struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Flatten walks a nested mapping depth-first. Nested maps recurse with the
// path extended by ".key"; slices become a JSON string leaf (element-wise
// expansion would explode row counts for no display benefit); every other
// value is a leaf as-is. Keys are visited in sorted order so the output is
// deterministic regardless of decode order.
func Flatten(doc map[string]any) []Pair {
	out := make([]Pair, 0, len(doc))
	walk(doc, "", &out)
	return out
}

func walk(doc map[string]any, prefix string, out *[]Pair) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := doc[k].(type) {
		case map[string]any:
			walk(v, path, out)
		case []any:
			buf, err := json.Marshal(v)
			if err != nil {
				*out = append(*out, Pair{Path: path, Value: v})
				continue
			}
			*out = append(*out, Pair{Path: path, Value: string(buf)})
		default:
			*out = append(*out, Pair{Path: path, Value: v})
		}
	}
}

// AsMap re-keys flattened pairs into a single-level mapping.
func AsMap(pairs []Pair) map[string]any {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		out[p.Path] = p.Value
	}
	return out
}
