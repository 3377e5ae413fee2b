package matching

import (
	"math"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DIMENSION SCORING
// Four independent dimension scores, each an integer in [0,100], combined
// into one weighted overall score. Shared interest is the strongest
// predictor of a good meetup, followed by proximity, then schedule
// overlap, then energy-level similarity.
// ══════════════════════════════════════════════════════════════════════════════

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// MatchScore holds the four dimension scores and the weighted overall.
// Invariant: Overall == round(Interest*0.4 + Location*0.3 + Time*0.2 + Activity*0.1).
type MatchScore struct {
	Interest int `json:"interest"`
	Location int `json:"location"`
	Time     int `json:"time"`
	Activity int `json:"activity"`
	Overall  int `json:"overall"`
}

// IsValid checks that every component lies in [0,100].
func (s MatchScore) IsValid() bool {
	for _, v := range []int{s.Interest, s.Location, s.Time, s.Activity, s.Overall} {
		if v < 0 || v > 100 {
			return false
		}
	}
	return true
}

// Weights holds the relative weight of each dimension in the overall
// score. The four weights sum to 1.
type Weights struct {
	Interest float64
	Location float64
	Time     float64
	Activity float64
}

// DefaultWeights returns the fixed production weights.
func DefaultWeights() Weights {
	return Weights{
		Interest: 0.4,
		Location: 0.3,
		Time:     0.2,
		Activity: 0.1,
	}
}

// Overall combines the four dimension scores, rounded to the nearest
// integer.
func (w Weights) Overall(interest, location, timeScore, activity int) int {
	return int(math.Round(
		float64(interest)*w.Interest +
			float64(location)*w.Location +
			float64(timeScore)*w.Time +
			float64(activity)*w.Activity,
	))
}

// DistanceKm computes the haversine great-circle distance between two
// coordinates. Symmetric, and zero for identical points.
func DistanceKm(a, b shared.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// LocationScore maps a distance in km to a sub-score. Close proximity is
// rewarded sharply; beyond the nominal 50 km meetup radius the score
// decays linearly, clamped at 0.
func LocationScore(distanceKm float64) int {
	switch {
	case distanceKm <= 5:
		return 100
	case distanceKm <= 10:
		return 90
	case distanceKm <= 25:
		return 70
	case distanceKm <= 50:
		return 50
	default:
		score := int(math.Round(100 - (distanceKm - 50)))
		if score < 0 {
			return 0
		}
		return score
	}
}

// InterestScore computes the overlap score between two interest sets:
// 100 * |intersection| / max(|a|, |b|), clamped to [0,100]. If either
// set is empty the score is 0 - no overlap is verifiable. Tags are
// compared case-sensitively as opaque strings.
func InterestScore(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, tag := range a {
		set[tag] = struct{}{}
	}

	overlap := 0
	seen := make(map[string]struct{}, len(b))
	for _, tag := range b {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := set[tag]; ok {
			overlap++
		}
	}

	max := len(set)
	if len(seen) > max {
		max = len(seen)
	}

	score := int(math.Round(100 * float64(overlap) / float64(max)))
	return clampScore(score)
}

// SharedInterests returns the tags present in both sets, preserving the
// order of the first set. Used for reason descriptions.
func SharedInterests(a, b []string) []string {
	other := make(map[string]struct{}, len(b))
	for _, tag := range b {
		other[tag] = struct{}{}
	}

	common := make([]string, 0)
	seen := make(map[string]struct{}, len(a))
	for _, tag := range a {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := other[tag]; ok {
			common = append(common, tag)
		}
	}
	return common
}

// TimeScore combines timezone alignment and availability overlap.
// The timezone component is 100 on exact string equality, 50 otherwise -
// no UTC-offset normalization. The availability component is 25 points
// per mutually available slot. The final score is the arithmetic mean
// of the two components.
func TimeScore(tzA, tzB shared.Timezone, availA, availB Availability) int {
	tzComponent := 50
	if tzA == tzB {
		tzComponent = 100
	}

	availComponent := 25 * availA.Overlap(availB)

	return int(math.Round(float64(tzComponent+availComponent) / 2))
}

// ActivityScore rewards similar energy levels without fully penalizing
// adjacent tiers: 100 when equal, 70 when one tier apart, 30 when two.
func ActivityScore(a, b ActivityLevel) int {
	diff := a.Ordinal() - b.Ordinal()
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 100
	case 1:
		return 70
	default:
		return 30
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
