package community

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// searchFields are the entry fields a query is matched against. Each field
// is matched on its own so a hit never spans two fields.
var searchFields = []func(Entry) string{
	func(e Entry) string { return e.Name },
	func(e Entry) string { return e.Description },
	func(e Entry) string { return e.Repo },
	func(e Entry) string { return e.Username },
}

// fieldSource adapts one field of the entries to fuzzy.Source.
type fieldSource struct {
	entries []Entry
	field   func(Entry) string
}

func (s fieldSource) String(i int) string { return s.field(s.entries[i]) }

func (s fieldSource) Len() int { return len(s.entries) }

// Search ranks index entries against query by their best matching field.
// An empty query returns the first limit entries in index order.
// limit <= 0 means no limit.
func (i *Index) Search(query string, limit int) []Entry {
	query = strings.TrimSpace(query)

	var results []Entry
	if query == "" {
		results = append(results, i.Packs...)
	} else {
		best := make(map[int]int)
		for _, field := range searchFields {
			for _, m := range fuzzy.FindFrom(query, fieldSource{entries: i.Packs, field: field}) {
				if score, ok := best[m.Index]; !ok || m.Score > score {
					best[m.Index] = m.Score
				}
			}
		}

		indexes := make([]int, 0, len(best))
		for idx := range best {
			indexes = append(indexes, idx)
		}
		sort.Slice(indexes, func(a, b int) bool {
			sa, sb := best[indexes[a]], best[indexes[b]]
			if sa != sb {
				return sa > sb
			}
			return indexes[a] < indexes[b]
		})
		for _, idx := range indexes {
			results = append(results, i.Packs[idx])
		}
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Search loads the cached index and searches it.
func (c *Client) Search(query string, limit int) ([]Entry, error) {
	idx, err := c.LoadIndex()
	if err != nil {
		return nil, err
	}
	return idx.Search(query, limit), nil
}
