// Package service implements infrastructure services bridging domain
// ports to their backing stores.
package service

import (
	"context"
	"time"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/matching"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/nomad"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/presence"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
	"github.com/nomad-hub/nomad-meetup-hub/pkg/logger"
	"github.com/nomad-hub/nomad-meetup-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ONLINE USER DISCOVERY
// Implements matching.Directory: geofence candidates via the presence
// tracker, filter to discoverable nomads, hydrate profiles from the
// profile repository.
// ══════════════════════════════════════════════════════════════════════════════

// DiscoveryService finds candidate profiles for the matching engine.
type DiscoveryService struct {
	tracker presence.Tracker
	repo    nomad.Repository
	retrier *retry.Retrier
	logger  *logger.Logger
	strict  bool
}

// Option configures a DiscoveryService.
type Option func(*DiscoveryService)

// WithStrictPresence makes a discovery round fail on the first presence
// read error instead of skipping the record.
func WithStrictPresence() Option {
	return func(s *DiscoveryService) { s.strict = true }
}

// NewDiscoveryService creates a new DiscoveryService.
func NewDiscoveryService(tracker presence.Tracker, repo nomad.Repository, log *logger.Logger, opts ...Option) *DiscoveryService {
	if log == nil {
		log = logger.Default()
	}
	s := &DiscoveryService{
		tracker: tracker,
		repo:    repo,
		retrier: retry.New(
			retry.WithMaxAttempts(3),
			retry.WithInitialDelay(50*time.Millisecond),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				log.Warn("discovery store call failed, retrying",
					logger.Component("discovery"),
					logger.Int("attempt", attempt),
					logger.Duration("delay", delay),
					logger.Err(err),
				)
			}),
		),
		logger: log.With(logger.Component("discovery")),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FindNearby returns candidate profiles within radiusKm of center,
// excluding the requester. Only nomads who are reachable (online or
// away) and opted in to meetups are returned. The DistanceKm on each
// candidate is the geofence estimate; the matching engine recomputes
// distances from authoritative coordinates.
func (s *DiscoveryService) FindNearby(ctx context.Context, center shared.Coordinate, radiusKm float64, exclude shared.NomadID) ([]matching.CandidateProfile, error) {
	ids, err := s.nearbyIDs(ctx, center, radiusKm)
	if err != nil {
		return nil, shared.WrapError("discovery", "FindNearby",
			shared.ErrDiscoveryFailed, "geofence query failed", err)
	}

	discoverable := make([]shared.NomadID, 0, len(ids))
	for _, id := range ids {
		if id == exclude {
			continue
		}

		info, err := s.tracker.Get(ctx, id)
		if err != nil {
			if s.strict {
				return nil, shared.WrapError("discovery", "FindNearby",
					shared.ErrDiscoveryFailed, "presence read failed", err)
			}
			// A single stale presence record must not sink the whole
			// discovery round.
			s.logger.Warn("failed to load presence, skipping candidate",
				logger.NomadID(id.String()),
				logger.Err(err),
			)
			continue
		}
		if info.IsDiscoverable() {
			discoverable = append(discoverable, id)
		}
	}

	if len(discoverable) == 0 {
		return []matching.CandidateProfile{}, nil
	}

	profiles, err := s.profilesByIDs(ctx, discoverable)
	if err != nil {
		return nil, shared.WrapError("discovery", "FindNearby",
			shared.ErrDiscoveryFailed, "profile lookup failed", err)
	}

	candidates := make([]matching.CandidateProfile, 0, len(profiles))
	for _, p := range profiles {
		candidates = append(candidates, p.ToCandidate(matching.DistanceKm(center, p.Location)))
	}

	s.logger.Debug("discovery round complete",
		logger.RadiusKm(radiusKm),
		logger.Int("geofence_hits", len(ids)),
		logger.CandidateCount(len(candidates)),
	)

	return candidates, nil
}

// nearbyIDs wraps the geofence query in retries.
func (s *DiscoveryService) nearbyIDs(ctx context.Context, center shared.Coordinate, radiusKm float64) ([]shared.NomadID, error) {
	var ids []shared.NomadID
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		ids, err = s.tracker.NearbyIDs(ctx, center, radiusKm)
		if err != nil && shared.IsValidation(err) {
			return retry.Permanent(err)
		}
		return err
	})
	return ids, err
}

// profilesByIDs wraps the profile batch lookup in retries.
func (s *DiscoveryService) profilesByIDs(ctx context.Context, ids []shared.NomadID) ([]*nomad.Profile, error) {
	var profiles []*nomad.Profile
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		profiles, err = s.repo.GetByIDs(ctx, ids)
		return err
	})
	return profiles, err
}
