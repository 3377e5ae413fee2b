package matching

import (
	"fmt"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH REASONS
// Human-readable explanations attached to a match when a dimension score
// clears the qualifying threshold. Reasons are emitted in a fixed order:
// interest, location, time, activity.
// ══════════════════════════════════════════════════════════════════════════════

// ReasonThreshold is the sub-score a dimension must exceed (strictly)
// before it earns a reason.
const ReasonThreshold = 70

// maxReasonTags caps how many shared interests an interest reason lists.
const maxReasonTags = 3

// Dimension identifies one of the four scoring dimensions.
type Dimension string

const (
	DimensionInterest Dimension = "interest"
	DimensionLocation Dimension = "location"
	DimensionTime     Dimension = "time"
	DimensionActivity Dimension = "activity"
)

// IsValid checks if the dimension is one of the four known values.
func (d Dimension) IsValid() bool {
	switch d {
	case DimensionInterest, DimensionLocation, DimensionTime, DimensionActivity:
		return true
	default:
		return false
	}
}

// MatchReason explains why a candidate scored well on one dimension.
type MatchReason struct {
	// Dimension - which dimension the reason belongs to.
	Dimension Dimension `json:"dimension"`

	// Description - text shown to the end user.
	Description string `json:"description"`

	// Score - the sub-score that qualified the reason.
	Score int `json:"score"`
}

// buildReasons derives reasons from the dimension scores and raw profile
// data. An empty result is valid and expected when no dimension clears
// the threshold.
func buildReasons(candidate CandidateProfile, prefs QueryPreferences, score MatchScore, distanceKm float64) []MatchReason {
	reasons := make([]MatchReason, 0, 4)

	if score.Interest > ReasonThreshold {
		reasons = append(reasons, MatchReason{
			Dimension:   DimensionInterest,
			Description: interestDescription(prefs.Interests, candidate.Interests),
			Score:       score.Interest,
		})
	}

	if score.Location > ReasonThreshold {
		reasons = append(reasons, MatchReason{
			Dimension:   DimensionLocation,
			Description: fmt.Sprintf("Only %.1f km away", distanceKm),
			Score:       score.Location,
		})
	}

	if score.Time > ReasonThreshold {
		reasons = append(reasons, MatchReason{
			Dimension:   DimensionTime,
			Description: "Schedules line up well",
			Score:       score.Time,
		})
	}

	if score.Activity > ReasonThreshold {
		reasons = append(reasons, MatchReason{
			Dimension:   DimensionActivity,
			Description: "Similar activity level",
			Score:       score.Activity,
		})
	}

	return reasons
}

// interestDescription lists up to three overlapping tags.
func interestDescription(a, b []string) string {
	common := SharedInterests(a, b)
	if len(common) > maxReasonTags {
		common = common[:maxReasonTags]
	}
	if len(common) == 0 {
		return "Strong interest overlap"
	}
	return "Shared interests: " + strings.Join(common, ", ")
}
