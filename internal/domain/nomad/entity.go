// Package nomad holds the persistent nomad profile aggregate. Profiles
// are the authoritative source of coordinates, interests, and meetup
// preferences; the matching engine receives request-scoped snapshots of
// them via discovery.
package nomad

import (
	"strings"
	"time"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/matching"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
)

// Profile is the stored profile of one nomad.
type Profile struct {
	// ID - unique identifier (UUID).
	ID shared.NomadID

	// DisplayName - name shown to other nomads.
	DisplayName string

	// Interests - unordered set of tags, no duplicates.
	Interests []string

	// Location - last confirmed position.
	Location shared.Coordinate

	// Timezone - IANA timezone name.
	Timezone shared.Timezone

	// Availability - declared meetup windows.
	Availability matching.Availability

	// ActivityLevel - declared energy tier.
	ActivityLevel matching.ActivityLevel

	// OpenToMeetups - discovery opt-in.
	OpenToMeetups bool

	// LastSeenAt - last recorded activity.
	LastSeenAt time.Time

	// CreatedAt / UpdatedAt - record timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfileParams holds the inputs for creating a profile.
type NewProfileParams struct {
	ID            string
	DisplayName   string
	Interests     []string
	Latitude      float64
	Longitude     float64
	Timezone      string
	Availability  matching.Availability
	ActivityLevel string
	OpenToMeetups bool
}

// NewProfile creates a validated Profile.
func NewProfile(params NewProfileParams) (*Profile, error) {
	id, err := shared.NewNomadID(params.ID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(params.DisplayName)
	if name == "" {
		return nil, shared.NewDomainError("profile", "New",
			shared.ErrEmptyValue, "display name is required")
	}

	location, err := shared.NewCoordinate(params.Latitude, params.Longitude)
	if err != nil {
		return nil, err
	}

	tz, err := shared.NewTimezone(params.Timezone)
	if err != nil {
		return nil, err
	}

	level, err := matching.ParseActivityLevel(params.ActivityLevel)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Profile{
		ID:            id,
		DisplayName:   name,
		Interests:     dedupeTags(params.Interests),
		Location:      location,
		Timezone:      tz,
		Availability:  params.Availability,
		ActivityLevel: level,
		OpenToMeetups: params.OpenToMeetups,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ToCandidate shapes the profile into the request-scoped snapshot the
// matching engine consumes. distanceKm is the geofence estimate from
// discovery; the engine recomputes its own.
func (p *Profile) ToCandidate(distanceKm float64) matching.CandidateProfile {
	interests := make([]string, len(p.Interests))
	copy(interests, p.Interests)

	return matching.CandidateProfile{
		ID:            p.ID,
		DisplayName:   p.DisplayName,
		Interests:     interests,
		Location:      p.Location,
		Timezone:      p.Timezone,
		Availability:  p.Availability,
		ActivityLevel: p.ActivityLevel,
		DistanceKm:    distanceKm,
	}
}

// dedupeTags removes duplicate tags while preserving order. Tags are
// opaque and case-sensitive.
func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
