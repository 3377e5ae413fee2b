package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/presence"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
	"github.com/nomad-hub/nomad-meetup-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE TRACKER
// Tracks real-time presence of nomads using Redis.
//
// Architecture:
//   - Each active nomad has a key "presence:{nomad_id}" with TTL
//   - A GEO set "presence:geo" holds last reported coordinates and
//     answers the discovery geofence via GEOSEARCH
// ══════════════════════════════════════════════════════════════════════════════

// Key names for presence tracking.
const (
	// keyPresencePrefix is the prefix for per-nomad presence keys.
	keyPresencePrefix = "presence:"

	// keyPresenceGeo is the GEO set of last reported positions.
	keyPresenceGeo = "presence:geo"
)

// presenceTTL keeps presence keys alive through the away window; beyond
// it the nomad is offline anyway.
const presenceTTL = presence.AwayThreshold

// presenceRecord is the stored JSON shape of one nomad's presence.
type presenceRecord struct {
	NomadID       string    `json:"nomad_id"`
	LastSeenAt    time.Time `json:"last_seen_at"`
	OpenToMeetups bool      `json:"open_to_meetups"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	DaySlot       string    `json:"day_slot,omitempty"`
}

// PresenceTracker implements presence.Tracker on Redis.
type PresenceTracker struct {
	client *Client
}

// NewPresenceTracker creates a new PresenceTracker.
func NewPresenceTracker(client *Client) *PresenceTracker {
	return &PresenceTracker{client: client}
}

// presenceKey returns the per-nomad presence key.
func presenceKey(id shared.NomadID) string {
	return keyPresencePrefix + id.String()
}

// Heartbeat records activity at the given position and refreshes the
// geo index entry.
func (t *PresenceTracker) Heartbeat(ctx context.Context, id shared.NomadID, at shared.Coordinate) error {
	if id.IsEmpty() {
		return ErrNomadIDEmpty
	}
	if err := at.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()

	// Preserve the opt-in flag across heartbeats.
	open := true
	if existing, err := t.getRecord(ctx, id); err == nil {
		open = existing.OpenToMeetups
	}

	record := presenceRecord{
		NomadID:       id.String(),
		LastSeenAt:    now,
		OpenToMeetups: open,
		Latitude:      at.Latitude,
		Longitude:     at.Longitude,
		DaySlot:       string(timeutil.SlotAt(now)),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("presence: failed to marshal record: %w", err)
	}

	pipe := t.client.Redis().Pipeline()
	pipe.Set(ctx, presenceKey(id), data, presenceTTL)
	pipe.GeoAdd(ctx, keyPresenceGeo, &redis.GeoLocation{
		Name:      id.String(),
		Longitude: at.Longitude,
		Latitude:  at.Latitude,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("presence: failed to record heartbeat: %w", err)
	}

	return nil
}

// SetOpenToMeetups toggles discovery opt-in without touching last-seen.
func (t *PresenceTracker) SetOpenToMeetups(ctx context.Context, id shared.NomadID, open bool) error {
	if id.IsEmpty() {
		return ErrNomadIDEmpty
	}

	record, err := t.getRecord(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return shared.ErrPresenceNotFound
		}
		return err
	}

	record.OpenToMeetups = open
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("presence: failed to marshal record: %w", err)
	}

	return t.client.Redis().Set(ctx, presenceKey(id), data, redis.KeepTTL).Err()
}

// Get returns the presence snapshot for one nomad. A missing key means
// the nomad is offline, not an error.
func (t *PresenceTracker) Get(ctx context.Context, id shared.NomadID) (*presence.Info, error) {
	if id.IsEmpty() {
		return nil, ErrNomadIDEmpty
	}

	record, err := t.getRecord(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return &presence.Info{
				NomadID: id,
				State:   presence.StateOffline,
			}, nil
		}
		return nil, err
	}

	return &presence.Info{
		NomadID:       id,
		State:         presence.StateFromLastSeen(record.LastSeenAt, time.Now().UTC()),
		LastSeenAt:    record.LastSeenAt,
		OpenToMeetups: record.OpenToMeetups,
		Location: shared.Coordinate{
			Latitude:  record.Latitude,
			Longitude: record.Longitude,
		},
	}, nil
}

// NearbyIDs answers the naive geofence: IDs of nomads whose last
// reported position is within radiusKm of center. Entries without a
// live presence key are stale and filtered by the caller via Get.
func (t *PresenceTracker) NearbyIDs(ctx context.Context, center shared.Coordinate, radiusKm float64) ([]shared.NomadID, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return nil, shared.NewDomainError("presence", "NearbyIDs",
			shared.ErrValueOutOfRange, "radius must be positive")
	}

	members, err := t.client.Redis().GeoSearch(ctx, keyPresenceGeo, &redis.GeoSearchQuery{
		Longitude:  center.Longitude,
		Latitude:   center.Latitude,
		Radius:     radiusKm,
		RadiusUnit: "km",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("presence: geo search failed: %w", err)
	}

	ids := make([]shared.NomadID, 0, len(members))
	for _, m := range members {
		ids = append(ids, shared.NomadID(m))
	}
	return ids, nil
}

// getRecord loads and unmarshals one presence record.
func (t *PresenceTracker) getRecord(ctx context.Context, id shared.NomadID) (*presenceRecord, error) {
	data, err := t.client.Redis().Get(ctx, presenceKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("presence: failed to load record: %w", err)
	}

	var record presenceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("presence: failed to unmarshal record: %w", err)
	}
	return &record, nil
}
