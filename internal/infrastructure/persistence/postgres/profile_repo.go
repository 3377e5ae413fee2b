package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/matching"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/nomad"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// profileColumns is the column list shared by all SELECTs.
const profileColumns = `
	id, display_name, interests, latitude, longitude, timezone,
	avail_morning, avail_afternoon, avail_evening, avail_night,
	activity_level, open_to_meetups, last_seen_at, created_at, updated_at
`

// ProfileRepository implements nomad.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// GetByID returns one profile, or shared.ErrProfileNotFound.
func (r *ProfileRepository) GetByID(ctx context.Context, id shared.NomadID) (*nomad.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM nomad_profiles WHERE id = $1`, profileColumns)

	row := r.conn.QueryRow(ctx, query, id.String())
	return r.scanProfile(row)
}

// GetByIDs returns the profiles for the given IDs in one round trip.
// Missing IDs are silently omitted.
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []shared.NomadID) ([]*nomad.Profile, error) {
	if len(ids) == 0 {
		return []*nomad.Profile{}, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := fmt.Sprintf(`SELECT %s FROM nomad_profiles WHERE id = ANY($1)`, profileColumns)

	rows, err := r.conn.Query(ctx, query, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles by ids: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// Upsert creates or replaces a profile.
func (r *ProfileRepository) Upsert(ctx context.Context, p *nomad.Profile) error {
	query := `
		INSERT INTO nomad_profiles (
			id, display_name, interests, latitude, longitude, timezone,
			avail_morning, avail_afternoon, avail_evening, avail_night,
			activity_level, open_to_meetups, last_seen_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			interests = EXCLUDED.interests,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			timezone = EXCLUDED.timezone,
			avail_morning = EXCLUDED.avail_morning,
			avail_afternoon = EXCLUDED.avail_afternoon,
			avail_evening = EXCLUDED.avail_evening,
			avail_night = EXCLUDED.avail_night,
			activity_level = EXCLUDED.activity_level,
			open_to_meetups = EXCLUDED.open_to_meetups,
			last_seen_at = EXCLUDED.last_seen_at,
			updated_at = EXCLUDED.updated_at
	`

	var lastSeen *time.Time
	if !p.LastSeenAt.IsZero() {
		lastSeen = &p.LastSeenAt
	}

	_, err := r.conn.Exec(ctx, query,
		p.ID.String(),
		p.DisplayName,
		p.Interests,
		p.Location.Latitude,
		p.Location.Longitude,
		p.Timezone.String(),
		p.Availability.Morning,
		p.Availability.Afternoon,
		p.Availability.Evening,
		p.Availability.Night,
		string(p.ActivityLevel),
		p.OpenToMeetups,
		lastSeen,
		p.CreatedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// Delete removes a profile.
func (r *ProfileRepository) Delete(ctx context.Context, id shared.NomadID) error {
	result, err := r.conn.Exec(ctx,
		"DELETE FROM nomad_profiles WHERE id = $1",
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

// scanProfile scans a single profile from a row.
func (r *ProfileRepository) scanProfile(row pgx.Row) (*nomad.Profile, error) {
	var p nomad.Profile
	var id, timezone, activityLevel string
	var interests []string
	var lastSeen *time.Time

	err := row.Scan(
		&id,
		&p.DisplayName,
		&interests,
		&p.Location.Latitude,
		&p.Location.Longitude,
		&timezone,
		&p.Availability.Morning,
		&p.Availability.Afternoon,
		&p.Availability.Evening,
		&p.Availability.Night,
		&activityLevel,
		&p.OpenToMeetups,
		&lastSeen,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.ID = shared.NomadID(id)
	p.Interests = interests
	p.Timezone = shared.Timezone(timezone)
	p.ActivityLevel = matching.ActivityLevel(activityLevel)
	if lastSeen != nil {
		p.LastSeenAt = *lastSeen
	}

	return &p, nil
}

// scanProfiles scans multiple profiles from rows.
func (r *ProfileRepository) scanProfiles(rows pgx.Rows) ([]*nomad.Profile, error) {
	var profiles []*nomad.Profile

	for rows.Next() {
		var p nomad.Profile
		var id, timezone, activityLevel string
		var interests []string
		var lastSeen *time.Time

		err := rows.Scan(
			&id,
			&p.DisplayName,
			&interests,
			&p.Location.Latitude,
			&p.Location.Longitude,
			&timezone,
			&p.Availability.Morning,
			&p.Availability.Afternoon,
			&p.Availability.Evening,
			&p.Availability.Night,
			&activityLevel,
			&p.OpenToMeetups,
			&lastSeen,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}

		p.ID = shared.NomadID(id)
		p.Interests = interests
		p.Timezone = shared.Timezone(timezone)
		p.ActivityLevel = matching.ActivityLevel(activityLevel)
		if lastSeen != nil {
			p.LastSeenAt = *lastSeen
		}

		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return profiles, nil
}
