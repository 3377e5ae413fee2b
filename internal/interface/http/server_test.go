package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomad-hub/nomad-meetup-hub/internal/application/query"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/matching"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/nomad"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/presence"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
	"github.com/nomad-hub/nomad-meetup-hub/internal/interface/http/handlers"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type stubDirectory struct {
	candidates []matching.CandidateProfile
	gotRadius  float64
}

func (s *stubDirectory) FindNearby(_ context.Context, _ shared.Coordinate, radiusKm float64, _ shared.NomadID) ([]matching.CandidateProfile, error) {
	s.gotRadius = radiusKm
	return s.candidates, nil
}

type stubTracker struct {
	heartbeats int
	info       *presence.Info
}

func (s *stubTracker) Heartbeat(context.Context, shared.NomadID, shared.Coordinate) error {
	s.heartbeats++
	return nil
}

func (s *stubTracker) SetOpenToMeetups(context.Context, shared.NomadID, bool) error { return nil }

func (s *stubTracker) Get(_ context.Context, id shared.NomadID) (*presence.Info, error) {
	if s.info != nil {
		return s.info, nil
	}
	return &presence.Info{NomadID: id, State: presence.StateOffline}, nil
}

func (s *stubTracker) NearbyIDs(context.Context, shared.Coordinate, float64) ([]shared.NomadID, error) {
	return nil, nil
}

type stubRepo struct {
	profiles map[string]*nomad.Profile
}

func newStubRepo() *stubRepo {
	return &stubRepo{profiles: make(map[string]*nomad.Profile)}
}

func (s *stubRepo) GetByID(_ context.Context, id shared.NomadID) (*nomad.Profile, error) {
	p, ok := s.profiles[id.String()]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p, nil
}

func (s *stubRepo) GetByIDs(_ context.Context, ids []shared.NomadID) ([]*nomad.Profile, error) {
	var out []*nomad.Profile
	for _, id := range ids {
		if p, ok := s.profiles[id.String()]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepo) Upsert(_ context.Context, p *nomad.Profile) error {
	s.profiles[p.ID.String()] = p
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id shared.NomadID) error {
	if _, ok := s.profiles[id.String()]; !ok {
		return shared.ErrProfileNotFound
	}
	delete(s.profiles, id.String())
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Setup
// ─────────────────────────────────────────────────────────────────────────────

func testServer(t *testing.T, dir matching.Directory, tracker presence.Tracker, repo nomad.Repository) *Server {
	t.Helper()

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0 // keep tests independent of timing
	cfg.EnableMetrics = false

	return NewServer(cfg, Dependencies{
		FindMatchesHandler: query.NewFindMatchesHandler(dir, matching.NewEngine(matching.DefaultConfig()), nil),
		Tracker:            tracker,
		ProfileRepo:        repo,
		HealthChecker:      handlers.NewNoopHealthChecker(),
	})
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

const testRequester = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"

func matchesBody() map[string]interface{} {
	return map[string]interface{}{
		"requester_id": testRequester,
		"interests":    []string{"surfing", "coworking"},
		"latitude":     13.7563,
		"longitude":    100.5018,
		"timezone":     "Asia/Bangkok",
		"availability": map[string]bool{"morning": true, "evening": true},
		"radius_km":    50,
		"limit":        10,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_FindMatches(t *testing.T) {
	dir := &stubDirectory{candidates: []matching.CandidateProfile{{
		ID:            shared.NomadID("7c9e6679-7425-40de-944b-e07fc1f90ae7"),
		DisplayName:   "Ada",
		Interests:     []string{"surfing", "coworking"},
		Location:      shared.Coordinate{Latitude: 13.7563, Longitude: 100.5018},
		Timezone:      "Asia/Bangkok",
		Availability:  matching.Availability{Morning: true, Evening: true},
		ActivityLevel: matching.ActivityMedium,
	}}}

	srv := testServer(t, dir, &stubTracker{}, newStubRepo())
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/matches", matchesBody())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool                    `json:"success"`
		Data    query.FindMatchesResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Matches, 1)
	assert.Equal(t, "Ada", resp.Data.Matches[0].DisplayName)
	assert.NotEmpty(t, resp.Data.RequestID)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_FindMatches_OmittedRadiusUsesDefault(t *testing.T) {
	dir := &stubDirectory{}
	srv := testServer(t, dir, &stubTracker{}, newStubRepo())

	body := matchesBody()
	delete(body, "radius_km")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/matches", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, DefaultConfig().DefaultRadiusKm, dir.gotRadius)
}

func TestServer_FindMatches_ValidationError(t *testing.T) {
	srv := testServer(t, &stubDirectory{}, &stubTracker{}, newStubRepo())

	body := matchesBody()
	body["radius_km"] = -1

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/matches", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestServer_FindMatches_MalformedBody(t *testing.T) {
	srv := testServer(t, &stubDirectory{}, &stubTracker{}, newStubRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/matches", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Heartbeat(t *testing.T) {
	tracker := &stubTracker{}
	srv := testServer(t, &stubDirectory{}, tracker, newStubRepo())

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/presence/heartbeat", map[string]interface{}{
		"nomad_id":  testRequester,
		"latitude":  13.7563,
		"longitude": 100.5018,
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, tracker.heartbeats)
}

func TestServer_Heartbeat_BadID(t *testing.T) {
	srv := testServer(t, &stubDirectory{}, &stubTracker{}, newStubRepo())

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/presence/heartbeat", map[string]interface{}{
		"nomad_id": "nope",
		"latitude": 1.0,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ProfileLifecycle(t *testing.T) {
	repo := newStubRepo()
	srv := testServer(t, &stubDirectory{}, &stubTracker{}, repo)

	put := doJSON(t, srv, http.MethodPut, "/api/v1/profiles/"+testRequester, map[string]interface{}{
		"display_name":   "Ada",
		"interests":      []string{"surfing"},
		"latitude":       13.7563,
		"longitude":      100.5018,
		"timezone":       "Asia/Bangkok",
		"availability":   map[string]bool{"morning": true},
		"activity_level": "high",
	})
	require.Equal(t, http.StatusOK, put.Code, put.Body.String())

	get := doJSON(t, srv, http.MethodGet, "/api/v1/profiles/"+testRequester, nil)
	require.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), "Ada")

	del := doJSON(t, srv, http.MethodDelete, "/api/v1/profiles/"+testRequester, nil)
	assert.Equal(t, http.StatusNoContent, del.Code)

	missing := doJSON(t, srv, http.MethodGet, "/api/v1/profiles/"+testRequester, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestServer_Profile_InvalidTimezone(t *testing.T) {
	srv := testServer(t, &stubDirectory{}, &stubTracker{}, newStubRepo())

	rec := doJSON(t, srv, http.MethodPut, "/api/v1/profiles/"+testRequester, map[string]interface{}{
		"display_name": "Ada",
		"latitude":     13.7563,
		"longitude":    100.5018,
		"timezone":     "Not/AZone",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Health(t *testing.T) {
	srv := testServer(t, &stubDirectory{}, &stubTracker{}, newStubRepo())

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	live := doJSON(t, srv, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, live.Code)
}

func TestServer_APIKeyAuth(t *testing.T) {
	hash, err := handlers.HashKey("secret-key")
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.EnableMetrics = false
	cfg.APIKeyHashes = []string{hash}

	srv := NewServer(cfg, Dependencies{
		FindMatchesHandler: query.NewFindMatchesHandler(&stubDirectory{}, matching.NewEngine(matching.DefaultConfig()), nil),
		Tracker:            &stubTracker{},
		ProfileRepo:        newStubRepo(),
	})

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(matchesBody()))

	// No key: rejected.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matches", bytes.NewReader(buf.Bytes()))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key: rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/matches", bytes.NewReader(buf.Bytes()))
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Right key: accepted.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/matches", bytes.NewReader(buf.Bytes()))
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open without a key.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
