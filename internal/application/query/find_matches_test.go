package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/matching"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
)

// fakeDirectory returns canned candidates and records how it was called.
type fakeDirectory struct {
	candidates []matching.CandidateProfile
	err        error

	calls       int
	gotCenter   shared.Coordinate
	gotRadiusKm float64
	gotExclude  shared.NomadID
}

func (f *fakeDirectory) FindNearby(_ context.Context, center shared.Coordinate, radiusKm float64, exclude shared.NomadID) ([]matching.CandidateProfile, error) {
	f.calls++
	f.gotCenter = center
	f.gotRadiusKm = radiusKm
	f.gotExclude = exclude
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

const requesterID = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"

func validQuery() FindMatchesQuery {
	return FindMatchesQuery{
		RequesterID:  requesterID,
		Interests:    []string{"surfing", "coworking", "coffee"},
		Latitude:     13.7563,
		Longitude:    100.5018,
		Timezone:     "Asia/Bangkok",
		Availability: matching.Availability{Morning: true, Afternoon: true, Evening: true, Night: true},
		RadiusKm:     50,
		Limit:        10,
	}
}

func queryCandidate(id string) matching.CandidateProfile {
	return matching.CandidateProfile{
		ID:            shared.NomadID(id),
		DisplayName:   "Nomad " + id,
		Interests:     []string{"surfing", "coworking", "coffee"},
		Location:      shared.Coordinate{Latitude: 13.7563, Longitude: 100.5018},
		Timezone:      "Asia/Bangkok",
		Availability:  matching.Availability{Morning: true, Afternoon: true, Evening: true, Night: true},
		ActivityLevel: matching.ActivityMedium,
	}
}

func newHandler(dir *fakeDirectory) *FindMatchesHandler {
	return NewFindMatchesHandler(dir, matching.NewEngine(matching.DefaultConfig()), nil)
}

func TestFindMatches_ReturnsRankedMatches(t *testing.T) {
	near := queryCandidate("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	far := queryCandidate("9b2d7a10-1c2e-4f3a-8b4c-5d6e7f8a9b0c")
	far.Location = shared.Coordinate{Latitude: 13.9, Longitude: 100.5018} // ~16 km out
	far.Interests = []string{"surfing"}

	dir := &fakeDirectory{candidates: []matching.CandidateProfile{far, near}}
	handler := newHandler(dir)

	result, err := handler.Handle(context.Background(), validQuery())

	require.NoError(t, err)
	assert.NotEmpty(t, result.RequestID)
	assert.Equal(t, 2, result.CandidateCount)
	assert.Zero(t, result.SkippedCount)
	require.Len(t, result.Matches, 2)

	// Perfect candidate ranks first regardless of directory order.
	assert.Equal(t, near.ID.String(), result.Matches[0].NomadID)
	assert.Equal(t, 100, result.Matches[0].Score.Overall)
	assert.Equal(t, "high", result.Matches[0].Compatibility)
	assert.True(t, result.Matches[0].Recommended)
	assert.NotEmpty(t, result.Matches[0].Reasons)

	assert.Greater(t, result.Matches[1].DistanceKm, result.Matches[0].DistanceKm)
}

func TestFindMatches_PassesGeofenceParameters(t *testing.T) {
	dir := &fakeDirectory{}
	handler := newHandler(dir)

	_, err := handler.Handle(context.Background(), validQuery())

	require.NoError(t, err)
	assert.Equal(t, 1, dir.calls)
	assert.Equal(t, shared.Coordinate{Latitude: 13.7563, Longitude: 100.5018}, dir.gotCenter)
	assert.Equal(t, 50.0, dir.gotRadiusKm)
	assert.Equal(t, requesterID, dir.gotExclude.String())
}

func TestFindMatches_EmptyDiscovery(t *testing.T) {
	dir := &fakeDirectory{}
	handler := newHandler(dir)

	result, err := handler.Handle(context.Background(), validQuery())

	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.Zero(t, result.CandidateCount)
}

func TestFindMatches_InvalidRequesterID(t *testing.T) {
	dir := &fakeDirectory{}
	handler := newHandler(dir)

	q := validQuery()
	q.RequesterID = "not-a-uuid"

	_, err := handler.Handle(context.Background(), q)

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Zero(t, dir.calls)
}

func TestFindMatches_InvalidPreferencesFailBeforeDiscovery(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FindMatchesQuery)
	}{
		{"negative radius", func(q *FindMatchesQuery) { q.RadiusKm = -1 }},
		{"zero radius", func(q *FindMatchesQuery) { q.RadiusKm = 0 }},
		{"bad timezone", func(q *FindMatchesQuery) { q.Timezone = "Not/AZone" }},
		{"latitude out of range", func(q *FindMatchesQuery) { q.Latitude = 91 }},
		{"negative limit", func(q *FindMatchesQuery) { q.Limit = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &fakeDirectory{}
			handler := newHandler(dir)

			q := validQuery()
			tt.mutate(&q)

			_, err := handler.Handle(context.Background(), q)

			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
			assert.Zero(t, dir.calls, "discovery must not run for invalid input")
		})
	}
}

func TestFindMatches_DiscoveryFailure(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("redis unavailable")}
	handler := newHandler(dir)

	_, err := handler.Handle(context.Background(), validQuery())

	require.Error(t, err)
	assert.True(t, shared.IsExternalService(err))
}

func TestFindMatches_SkippedCandidatesAreCounted(t *testing.T) {
	good := queryCandidate("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	bad := queryCandidate("9b2d7a10-1c2e-4f3a-8b4c-5d6e7f8a9b0c")
	bad.Location.Latitude = 120 // invalid

	dir := &fakeDirectory{candidates: []matching.CandidateProfile{good, bad}}
	handler := newHandler(dir)

	result, err := handler.Handle(context.Background(), validQuery())

	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedCount)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, good.ID.String(), result.Matches[0].NomadID)
}

func TestFindMatches_LimitDefaults(t *testing.T) {
	q := validQuery()
	q.Limit = 0
	require.NoError(t, q.Validate())
	assert.Equal(t, DefaultMatchLimit, q.Limit)

	q = validQuery()
	q.Limit = 500
	require.NoError(t, q.Validate())
	assert.Equal(t, MaxMatchLimit, q.Limit)
}
