package catalog

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/theirongolddev/anggaran/internal/model"
)

// Suggest ranks catalog entries by edit distance between text and the entry
// name, for presenting candidates to a human. Entries whose name contains
// text rank first. Ties keep catalog order.
func Suggest(lookup Lookup, text string, n int) []model.AccountCode {
	text = strings.ToLower(strings.TrimSpace(text))
	all := lookup.All()
	if text == "" || n <= 0 || len(all) == 0 {
		return nil
	}

	type scored struct {
		ac       model.AccountCode
		contains bool
		dist     int
	}
	ranked := make([]scored, len(all))
	for i, ac := range all {
		name := strings.ToLower(ac.Name)
		ranked[i] = scored{
			ac:       ac,
			contains: strings.Contains(name, text) || (name != "" && strings.Contains(text, name)),
			dist:     levenshtein.ComputeDistance(text, name),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].contains != ranked[j].contains {
			return ranked[i].contains
		}
		return ranked[i].dist < ranked[j].dist
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]model.AccountCode, n)
	for i := range out {
		out[i] = ranked[i].ac
	}
	return out
}
