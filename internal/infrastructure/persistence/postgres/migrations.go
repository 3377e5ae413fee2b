package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_nomad_profiles",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "index_nomad_profiles_location",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS nomad_profiles (
	id UUID PRIMARY KEY,
	display_name TEXT NOT NULL,
	interests TEXT[] NOT NULL DEFAULT '{}',
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	timezone TEXT NOT NULL,
	avail_morning BOOLEAN NOT NULL DEFAULT FALSE,
	avail_afternoon BOOLEAN NOT NULL DEFAULT FALSE,
	avail_evening BOOLEAN NOT NULL DEFAULT FALSE,
	avail_night BOOLEAN NOT NULL DEFAULT FALSE,
	activity_level TEXT NOT NULL DEFAULT 'medium',
	open_to_meetups BOOLEAN NOT NULL DEFAULT TRUE,
	last_seen_at TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

	CONSTRAINT chk_latitude CHECK (latitude >= -90 AND latitude <= 90),
	CONSTRAINT chk_longitude CHECK (longitude >= -180 AND longitude <= 180),
	CONSTRAINT chk_activity_level CHECK (activity_level IN ('low', 'medium', 'high'))
);

CREATE INDEX IF NOT EXISTS idx_nomad_profiles_open
	ON nomad_profiles (open_to_meetups)
	WHERE open_to_meetups = TRUE;
`

const migration001Down = `
DROP TABLE IF EXISTS nomad_profiles;
`

// Coarse bounding-box index; the precise haversine filter runs in the
// matching engine, not in SQL.
const migration002Up = `
CREATE INDEX IF NOT EXISTS idx_nomad_profiles_location
	ON nomad_profiles (latitude, longitude);
`

const migration002Down = `
DROP INDEX IF EXISTS idx_nomad_profiles_location;
`
