package matching

import "sort"

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// A total, deterministic order: overall score descending, then recomputed
// distance ascending, then candidate ID ascending. Reproducible output
// regardless of input order, sequential or parallel scoring.
// ══════════════════════════════════════════════════════════════════════════════

// Rank sorts matches deterministically and truncates to limit entries.
// A limit of zero or below yields an empty list; a limit beyond the
// match count returns all matches. The input slice is not modified.
func Rank(matches []SmartMatch, limit int) []SmartMatch {
	if limit <= 0 {
		return []SmartMatch{}
	}

	ranked := make([]SmartMatch, len(matches))
	copy(ranked, matches)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score.Overall != ranked[j].Score.Overall {
			return ranked[i].Score.Overall > ranked[j].Score.Overall
		}
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Candidate.ID < ranked[j].Candidate.ID
	})

	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
