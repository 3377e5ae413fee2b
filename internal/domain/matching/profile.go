package matching

import (
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILES
// Candidate profiles arrive fresh per request from the online user
// directory. Nothing in this package is persisted, mutated after creation,
// or shared across requests.
// ══════════════════════════════════════════════════════════════════════════════

// ActivityLevel describes how energetic a nomad's preferred meetups are.
type ActivityLevel string

const (
	// ActivityLow - cafés, coworking, quiet walks.
	ActivityLow ActivityLevel = "low"

	// ActivityMedium - city exploring, day trips.
	ActivityMedium ActivityLevel = "medium"

	// ActivityHigh - hiking, surfing, sports.
	ActivityHigh ActivityLevel = "high"
)

// IsValid checks if the activity level is one of the known tiers.
func (a ActivityLevel) IsValid() bool {
	switch a {
	case ActivityLow, ActivityMedium, ActivityHigh:
		return true
	default:
		return false
	}
}

// Ordinal maps the tier to its position: low=1, medium=2, high=3.
// Unknown levels map to the middle tier so a stray value never
// produces an out-of-range distance.
func (a ActivityLevel) Ordinal() int {
	switch a {
	case ActivityLow:
		return 1
	case ActivityMedium:
		return 2
	case ActivityHigh:
		return 3
	default:
		return 2
	}
}

// ParseActivityLevel parses a string into an ActivityLevel.
func ParseActivityLevel(s string) (ActivityLevel, error) {
	level := ActivityLevel(s)
	if !level.IsValid() {
		return "", shared.NewDomainError("matching", "ParseActivityLevel",
			shared.ErrInvalidInput, "activity level must be low, medium or high")
	}
	return level, nil
}

// Availability marks the parts of the day a nomad is free to meet.
// The four slots are independent booleans.
type Availability struct {
	Morning   bool `json:"morning"`
	Afternoon bool `json:"afternoon"`
	Evening   bool `json:"evening"`
	Night     bool `json:"night"`
}

// Overlap counts the slots where both parties are available.
func (a Availability) Overlap(other Availability) int {
	count := 0
	if a.Morning && other.Morning {
		count++
	}
	if a.Afternoon && other.Afternoon {
		count++
	}
	if a.Evening && other.Evening {
		count++
	}
	if a.Night && other.Night {
		count++
	}
	return count
}

// Any returns true if at least one slot is marked available.
func (a Availability) Any() bool {
	return a.Morning || a.Afternoon || a.Evening || a.Night
}

// Slots returns the names of the available slots in day order.
func (a Availability) Slots() []string {
	slots := make([]string, 0, 4)
	if a.Morning {
		slots = append(slots, "morning")
	}
	if a.Afternoon {
		slots = append(slots, "afternoon")
	}
	if a.Evening {
		slots = append(slots, "evening")
	}
	if a.Night {
		slots = append(slots, "night")
	}
	return slots
}

// CandidateProfile is a prospective match supplied by the online user
// directory. The ID is stable for the duration of a matching request.
type CandidateProfile struct {
	// ID - unique identifier of the nomad.
	ID shared.NomadID

	// DisplayName - name for presentation; not used for scoring.
	DisplayName string

	// Interests - unordered set of tags, no duplicates. Tags are opaque
	// case-sensitive strings.
	Interests []string

	// Location - last known position in decimal degrees.
	Location shared.Coordinate

	// Timezone - IANA timezone name.
	Timezone shared.Timezone

	// Availability - declared meetup windows.
	Availability Availability

	// ActivityLevel - declared energy tier.
	ActivityLevel ActivityLevel

	// DistanceKm - distance precomputed by the discovery geofence.
	// Informational only: the engine recomputes its own distance from
	// the full coordinates and never trusts this value.
	DistanceKm float64
}

// Validate checks the fields the engine depends on. A candidate that
// fails validation is excluded from scoring, never fatal to the batch.
func (c CandidateProfile) Validate() error {
	if c.ID.IsEmpty() {
		return shared.ErrInvalidNomadID
	}
	if err := c.Location.Validate(); err != nil {
		return err
	}
	return nil
}

// QueryPreferences describes the requesting nomad's criteria.
type QueryPreferences struct {
	// Interests - the requester's interest tags.
	Interests []string

	// Location - where the requester is right now.
	Location shared.Coordinate

	// RadiusKm - discovery radius in kilometres. Must be positive.
	RadiusKm float64

	// Timezone - the requester's IANA timezone.
	Timezone shared.Timezone

	// Availability - the requester's meetup windows.
	Availability Availability

	// ActivityLevel - the requester's energy tier.
	ActivityLevel ActivityLevel
}

// Validate checks the preferences before any candidate is scored.
// Violations are fatal to the whole request.
func (p QueryPreferences) Validate() error {
	if p.RadiusKm <= 0 {
		return shared.NewDomainError("matching", "Validate",
			shared.ErrValueOutOfRange, "radius must be positive")
	}
	if err := p.Location.Validate(); err != nil {
		return shared.WrapError("matching", "Validate",
			shared.ErrValueOutOfRange, "invalid query location", err)
	}
	if !p.Timezone.IsValid() {
		return shared.ErrInvalidTimezone
	}
	return nil
}
