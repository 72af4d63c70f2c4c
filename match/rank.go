// Package match ranks named candidates against a free-text query.
//
// Any scoring algorithm that orders plausible matches first satisfies the
// contract; the current implementation combines normalized Levenshtein
// similarity with a substring bonus so short queries still match verbose
// catalog names.
package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scored pairs a candidate with its similarity score in [0, 1].
type Scored[T any] struct {
	Value T
	Name  string
	Score float64
}

// Rank scores every candidate name against the query and returns the top
// matches in descending score order, truncated to limit (limit <= 0 keeps
// all). Candidates with blank names are excluded before scoring. Ordering
// is stable: tied scores keep their original input order.
func Rank[T any](query string, items []T, nameOf func(T) string, limit int) []Scored[T] {
	scored := make([]Scored[T], 0, len(items))
	for _, item := range items {
		name := nameOf(item)
		if strings.TrimSpace(name) == "" {
			continue
		}
		scored = append(scored, Scored[T]{
			Value: item,
			Name:  name,
			Score: similarity(query, name),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func similarity(query, name string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	n := strings.ToLower(strings.TrimSpace(name))
	if q == "" || n == "" {
		return 0
	}
	if q == n {
		return 1
	}

	qLen := utf8.RuneCountInString(q)
	nLen := utf8.RuneCountInString(n)
	longest := max(qLen, nLen)

	score := 1 - float64(levenshtein.ComputeDistance(q, n))/float64(longest)

	// An exact substring match always beats edit-distance noise from
	// unrelated names; within substring matches, closer lengths score higher.
	if strings.Contains(n, q) || strings.Contains(q, n) {
		if sub := 0.5 + 0.5*float64(min(qLen, nLen))/float64(longest); sub > score {
			score = sub
		}
	}

	return score
}
