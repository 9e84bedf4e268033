package reconcile

import (
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// Suggestion is a candidate name ranked by similarity to a query.
type Suggestion struct {
	Name       string
	Similarity float64
}

// Suggest ranks names by Jaro-Winkler similarity to the query and returns at
// most limit of them with a similarity of at least threshold.
func Suggest(query string, names []string, threshold float64, limit int) []Suggestion {
	query = strings.ToLower(strings.TrimSpace(query))

	var out []Suggestion
	for _, name := range names {
		similarity := matchr.JaroWinkler(query, strings.ToLower(name), false)
		if similarity < threshold {
			continue
		}
		out = append(out, Suggestion{Name: name, Similarity: similarity})
	}

	slices.SortStableFunc(out, func(a, b Suggestion) int {
		// flipped so the most similar come first
		if a.Similarity < b.Similarity {
			return 1
		}
		if a.Similarity > b.Similarity {
			return -1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
