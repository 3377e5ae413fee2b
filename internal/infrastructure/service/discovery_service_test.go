package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/nomad"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/presence"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeTracker struct {
	nearby  []shared.NomadID
	infos   map[string]*presence.Info
	getErrs map[string]error
}

func (f *fakeTracker) Heartbeat(context.Context, shared.NomadID, shared.Coordinate) error {
	return nil
}

func (f *fakeTracker) SetOpenToMeetups(context.Context, shared.NomadID, bool) error {
	return nil
}

func (f *fakeTracker) Get(_ context.Context, id shared.NomadID) (*presence.Info, error) {
	if err, ok := f.getErrs[id.String()]; ok {
		return nil, err
	}
	if info, ok := f.infos[id.String()]; ok {
		return info, nil
	}
	return &presence.Info{NomadID: id, State: presence.StateOffline}, nil
}

func (f *fakeTracker) NearbyIDs(context.Context, shared.Coordinate, float64) ([]shared.NomadID, error) {
	return f.nearby, nil
}

type fakeProfileRepo struct {
	profiles map[string]*nomad.Profile
	gotIDs   []shared.NomadID
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id shared.NomadID) (*nomad.Profile, error) {
	if p, ok := f.profiles[id.String()]; ok {
		return p, nil
	}
	return nil, shared.ErrProfileNotFound
}

func (f *fakeProfileRepo) GetByIDs(_ context.Context, ids []shared.NomadID) ([]*nomad.Profile, error) {
	f.gotIDs = ids
	var out []*nomad.Profile
	for _, id := range ids {
		if p, ok := f.profiles[id.String()]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfileRepo) Upsert(context.Context, *nomad.Profile) error { return nil }
func (f *fakeProfileRepo) Delete(context.Context, shared.NomadID) error { return nil }

// ─────────────────────────────────────────────────────────────────────────────
// Setup
// ─────────────────────────────────────────────────────────────────────────────

const (
	requesterID = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	nomadA      = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	nomadB      = "9b2d7a10-1c2e-4f3a-8b4c-5d6e7f8a9b0c"
)

var bangkok = shared.Coordinate{Latitude: 13.7563, Longitude: 100.5018}

func onlineInfo(id string) *presence.Info {
	return &presence.Info{
		NomadID:       shared.NomadID(id),
		State:         presence.StateOnline,
		OpenToMeetups: true,
		Location:      bangkok,
	}
}

func storedProfile(t *testing.T, id string) *nomad.Profile {
	t.Helper()

	p, err := nomad.NewProfile(nomad.NewProfileParams{
		ID:            id,
		DisplayName:   "Nomad " + id[:8],
		Interests:     []string{"surfing"},
		Latitude:      bangkok.Latitude,
		Longitude:     bangkok.Longitude,
		Timezone:      "Asia/Bangkok",
		ActivityLevel: "medium",
		OpenToMeetups: true,
	})
	require.NoError(t, err)
	return p
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestDiscovery_ReturnsDiscoverableCandidates(t *testing.T) {
	tracker := &fakeTracker{
		nearby: []shared.NomadID{shared.NomadID(nomadA), shared.NomadID(nomadB), shared.NomadID(requesterID)},
		infos: map[string]*presence.Info{
			nomadA: onlineInfo(nomadA),
			nomadB: {NomadID: shared.NomadID(nomadB), State: presence.StateOnline, OpenToMeetups: false},
		},
	}
	repo := &fakeProfileRepo{profiles: map[string]*nomad.Profile{
		nomadA: storedProfile(t, nomadA),
	}}

	svc := NewDiscoveryService(tracker, repo, nil)

	candidates, err := svc.FindNearby(context.Background(), bangkok, 50, shared.NomadID(requesterID))

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, nomadA, candidates[0].ID.String())

	// The requester and the opted-out nomad never reach the profile load.
	assert.Equal(t, []shared.NomadID{shared.NomadID(nomadA)}, repo.gotIDs)
}

func TestDiscovery_SkipsFailingPresenceRecord(t *testing.T) {
	tracker := &fakeTracker{
		nearby: []shared.NomadID{shared.NomadID(nomadA), shared.NomadID(nomadB)},
		infos: map[string]*presence.Info{
			nomadA: onlineInfo(nomadA),
		},
		getErrs: map[string]error{
			nomadB: errors.New("redis: connection reset"),
		},
	}
	repo := &fakeProfileRepo{profiles: map[string]*nomad.Profile{
		nomadA: storedProfile(t, nomadA),
	}}

	svc := NewDiscoveryService(tracker, repo, nil)

	candidates, err := svc.FindNearby(context.Background(), bangkok, 50, shared.NomadID(requesterID))

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, nomadA, candidates[0].ID.String())
}

func TestDiscovery_StrictPresenceFailsTheRound(t *testing.T) {
	tracker := &fakeTracker{
		nearby: []shared.NomadID{shared.NomadID(nomadA), shared.NomadID(nomadB)},
		infos: map[string]*presence.Info{
			nomadA: onlineInfo(nomadA),
		},
		getErrs: map[string]error{
			nomadB: errors.New("redis: connection reset"),
		},
	}
	repo := &fakeProfileRepo{profiles: map[string]*nomad.Profile{
		nomadA: storedProfile(t, nomadA),
	}}

	svc := NewDiscoveryService(tracker, repo, nil, WithStrictPresence())

	_, err := svc.FindNearby(context.Background(), bangkok, 50, shared.NomadID(requesterID))

	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDiscoveryFailed))
}

func TestDiscovery_EmptyGeofence(t *testing.T) {
	svc := NewDiscoveryService(&fakeTracker{}, &fakeProfileRepo{}, nil)

	candidates, err := svc.FindNearby(context.Background(), bangkok, 50, shared.NomadID(requesterID))

	require.NoError(t, err)
	assert.Empty(t, candidates)
}
