// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/matching"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
	"github.com/nomad-hub/nomad-meetup-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIND MATCHES QUERY
// Runs one smart-matching round for a requester: discover online
// candidates inside the radius, score them across four dimensions,
// classify, and return a deterministically ranked list.
// ══════════════════════════════════════════════════════════════════════════════

// Limit defaults applied during validation.
const (
	DefaultMatchLimit = 20
	MaxMatchLimit     = 100
)

// FindMatchesQuery holds the parameters of a matching round.
type FindMatchesQuery struct {
	// RequesterID - nomad asking for matches (UUID).
	RequesterID string

	// Interests - the requester's interest tags.
	Interests []string

	// Latitude / Longitude - the requester's current position.
	Latitude  float64
	Longitude float64

	// Timezone - IANA timezone name, e.g. "Asia/Bangkok".
	Timezone string

	// Availability - declared meetup windows.
	Availability matching.Availability

	// ActivityLevel - "low", "medium", or "high". Empty means medium.
	ActivityLevel string

	// RadiusKm - search radius, must be positive.
	RadiusKm float64

	// Limit - maximum matches to return. Zero means DefaultMatchLimit.
	Limit int
}

// Validate checks the query parameters and applies limit defaults.
// Preference validation proper (radius, coordinates, timezone) is the
// engine's job; this only rejects what the application layer owns.
func (q *FindMatchesQuery) Validate() error {
	if _, err := shared.NewNomadID(q.RequesterID); err != nil {
		return err
	}
	if q.Limit < 0 {
		return shared.NewDomainError("query", "FindMatches",
			shared.ErrValueOutOfRange, "limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultMatchLimit
	}
	if q.Limit > MaxMatchLimit {
		q.Limit = MaxMatchLimit
	}
	return nil
}

// preferences shapes the query into engine preferences.
func (q *FindMatchesQuery) preferences() matching.QueryPreferences {
	level, err := matching.ParseActivityLevel(q.ActivityLevel)
	if err != nil {
		level = matching.ActivityMedium
	}
	return matching.QueryPreferences{
		Interests: q.Interests,
		Location: shared.Coordinate{
			Latitude:  q.Latitude,
			Longitude: q.Longitude,
		},
		RadiusKm:      q.RadiusKm,
		Timezone:      shared.Timezone(q.Timezone),
		Availability:  q.Availability,
		ActivityLevel: level,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────────────────────────────────────

// ScoreDTO carries the per-dimension scores.
type ScoreDTO struct {
	Interest int `json:"interest"`
	Location int `json:"location"`
	Time     int `json:"time"`
	Activity int `json:"activity"`
	Overall  int `json:"overall"`
}

// ReasonDTO is one human-readable match reason.
type ReasonDTO struct {
	Dimension   string `json:"dimension"`
	Description string `json:"description"`
	Score       int    `json:"score"`
}

// MatchDTO is one ranked match.
type MatchDTO struct {
	NomadID       string      `json:"nomad_id"`
	DisplayName   string      `json:"display_name"`
	Score         ScoreDTO    `json:"score"`
	Reasons       []ReasonDTO `json:"reasons"`
	Compatibility string      `json:"compatibility"`
	Recommended   bool        `json:"recommended"`
	DistanceKm    float64     `json:"distance_km"`
}

// FindMatchesResult is the outcome of one matching round.
type FindMatchesResult struct {
	// RequestID - unique ID of this matching round, for tracing.
	RequestID string `json:"request_id"`

	// Matches - ranked matches, best first.
	Matches []MatchDTO `json:"matches"`

	// CandidateCount - how many candidates discovery produced.
	CandidateCount int `json:"candidate_count"`

	// SkippedCount - candidates dropped for invalid data.
	SkippedCount int `json:"skipped_count"`

	// GeneratedAt - when the round finished.
	GeneratedAt time.Time `json:"generated_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Handler
// ─────────────────────────────────────────────────────────────────────────────

// FindMatchesHandler runs matching rounds.
type FindMatchesHandler struct {
	directory matching.Directory
	engine    *matching.Engine
	logger    *logger.Logger
}

// NewFindMatchesHandler creates a new handler.
func NewFindMatchesHandler(directory matching.Directory, engine *matching.Engine, log *logger.Logger) *FindMatchesHandler {
	if log == nil {
		log = logger.Default()
	}
	return &FindMatchesHandler{
		directory: directory,
		engine:    engine,
		logger:    log.With(logger.Component("find_matches")),
	}
}

// Handle executes the matching round.
func (h *FindMatchesHandler) Handle(ctx context.Context, query FindMatchesQuery) (*FindMatchesResult, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := h.logger.WithRequestID(requestID).With(logger.RequesterID(query.RequesterID))

	if err := query.Validate(); err != nil {
		return nil, err
	}

	prefs := query.preferences()

	// Preferences are validated before discovery so a bad request never
	// costs a store round trip.
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	requesterID, _ := shared.NewNomadID(query.RequesterID)

	candidates, err := h.directory.FindNearby(ctx, prefs.Location, prefs.RadiusKm, requesterID)
	if err != nil {
		log.Error("candidate discovery failed", logger.Err(err))
		return nil, shared.WrapError("query", "FindMatches",
			shared.ErrExternalService, "candidate discovery failed", err)
	}

	matches, skipped, err := h.engine.ComputeMatches(candidates, prefs, query.Limit)
	if err != nil {
		return nil, err
	}

	// Invalid candidates are a data-quality signal, not a failure.
	for _, s := range skipped {
		log.Warn("candidate skipped",
			logger.CandidateID(s.ID.String()),
			logger.Err(s.Reason),
		)
	}

	log.Info("matching round complete",
		logger.RadiusKm(query.RadiusKm),
		logger.CandidateCount(len(candidates)),
		logger.MatchCount(len(matches)),
		logger.Int("skipped", len(skipped)),
		logger.Latency(time.Since(start)),
	)

	return &FindMatchesResult{
		RequestID:      requestID,
		Matches:        toMatchDTOs(matches),
		CandidateCount: len(candidates),
		SkippedCount:   len(skipped),
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

// toMatchDTOs shapes engine output into the transport DTOs.
func toMatchDTOs(matches []matching.SmartMatch) []MatchDTO {
	dtos := make([]MatchDTO, len(matches))
	for i, m := range matches {
		reasons := make([]ReasonDTO, len(m.Reasons))
		for j, r := range m.Reasons {
			reasons[j] = ReasonDTO{
				Dimension:   string(r.Dimension),
				Description: r.Description,
				Score:       r.Score,
			}
		}

		dtos[i] = MatchDTO{
			NomadID:       m.Candidate.ID.String(),
			DisplayName:   m.Candidate.DisplayName,
			Score: ScoreDTO{
				Interest: m.Score.Interest,
				Location: m.Score.Location,
				Time:     m.Score.Time,
				Activity: m.Score.Activity,
				Overall:  m.Score.Overall,
			},
			Reasons:       reasons,
			Compatibility: string(m.Compatibility),
			Recommended:   m.Recommended,
			DistanceKm:    m.DistanceKm,
		}
	}
	return dtos
}
