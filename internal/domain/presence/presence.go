// Package presence models a nomad's online state. The state feeds the
// online user discovery pre-filter; it never influences scoring.
package presence

import (
	"context"
	"time"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ONLINE STATE
// ══════════════════════════════════════════════════════════════════════════════

// OnlineState represents a nomad's presence state.
type OnlineState string

const (
	// StateOnline indicates recent activity (last seen < 5 min ago).
	StateOnline OnlineState = "online"

	// StateAway indicates the nomad is away (last seen 5-30 min ago).
	StateAway OnlineState = "away"

	// StateOffline indicates no recent activity (> 30 min or never).
	StateOffline OnlineState = "offline"
)

// Presence thresholds.
const (
	OnlineThreshold = 5 * time.Minute
	AwayThreshold   = 30 * time.Minute
)

// IsValid checks if the online state is valid.
func (s OnlineState) IsValid() bool {
	switch s {
	case StateOnline, StateAway, StateOffline:
		return true
	default:
		return false
	}
}

// IsReachable returns true if the nomad can plausibly respond to a
// meetup invitation right now.
func (s OnlineState) IsReachable() bool {
	return s == StateOnline || s == StateAway
}

// StateFromLastSeen derives the state from the last activity timestamp.
func StateFromLastSeen(lastSeen time.Time, now time.Time) OnlineState {
	if lastSeen.IsZero() {
		return StateOffline
	}
	elapsed := now.Sub(lastSeen)
	switch {
	case elapsed < OnlineThreshold:
		return StateOnline
	case elapsed < AwayThreshold:
		return StateAway
	default:
		return StateOffline
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE INFO
// ══════════════════════════════════════════════════════════════════════════════

// Info contains a nomad's current presence snapshot.
type Info struct {
	// NomadID is the unique identifier of the nomad.
	NomadID shared.NomadID `json:"nomad_id"`

	// State is the derived online state.
	State OnlineState `json:"state"`

	// LastSeenAt is the timestamp of last activity.
	LastSeenAt time.Time `json:"last_seen_at"`

	// OpenToMeetups indicates the nomad wants to be discoverable.
	OpenToMeetups bool `json:"open_to_meetups"`

	// Location is the last reported position, if any.
	Location shared.Coordinate `json:"location"`
}

// TimeSinceLastSeen returns the duration since last activity.
func (i *Info) TimeSinceLastSeen() time.Duration {
	return time.Since(i.LastSeenAt)
}

// IsDiscoverable returns true if the nomad should appear in discovery
// results: reachable and opted in.
func (i *Info) IsDiscoverable() bool {
	return i.State.IsReachable() && i.OpenToMeetups
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACKER PORT
// ══════════════════════════════════════════════════════════════════════════════

// Tracker tracks nomad presence and answers geofence queries. The
// production implementation lives in infrastructure/persistence/redis.
type Tracker interface {
	// Heartbeat records activity at the given position and refreshes
	// the geo index entry.
	Heartbeat(ctx context.Context, id shared.NomadID, at shared.Coordinate) error

	// SetOpenToMeetups toggles discovery opt-in.
	SetOpenToMeetups(ctx context.Context, id shared.NomadID, open bool) error

	// Get returns the presence snapshot for one nomad.
	Get(ctx context.Context, id shared.NomadID) (*Info, error)

	// NearbyIDs returns IDs of nomads whose last reported position is
	// within radiusKm of center. A naive geofence: callers re-check
	// distance from authoritative coordinates.
	NearbyIDs(ctx context.Context, center shared.Coordinate, radiusKm float64) ([]shared.NomadID, error)
}
