package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nomad-hub/nomad-meetup-hub/internal/application/query"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/matching"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/nomad"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
	"github.com/nomad-hub/nomad-meetup-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / RESPONSE SHAPES
// ══════════════════════════════════════════════════════════════════════════════

// availabilityBody mirrors matching.Availability on the wire.
type availabilityBody struct {
	Morning   bool `json:"morning"`
	Afternoon bool `json:"afternoon"`
	Evening   bool `json:"evening"`
	Night     bool `json:"night"`
}

func (a availabilityBody) toDomain() matching.Availability {
	return matching.Availability{
		Morning:   a.Morning,
		Afternoon: a.Afternoon,
		Evening:   a.Evening,
		Night:     a.Night,
	}
}

// findMatchesRequest is the body of POST /api/v1/matches.
type findMatchesRequest struct {
	RequesterID   string           `json:"requester_id"`
	Interests     []string         `json:"interests"`
	Latitude      float64          `json:"latitude"`
	Longitude     float64          `json:"longitude"`
	Timezone      string           `json:"timezone"`
	Availability  availabilityBody `json:"availability"`
	ActivityLevel string           `json:"activity_level"`
	RadiusKm      float64          `json:"radius_km"`
	Limit         int              `json:"limit"`
}

// heartbeatRequest is the body of POST /api/v1/presence/heartbeat.
type heartbeatRequest struct {
	NomadID   string  `json:"nomad_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// openToMeetupsRequest is the body of PUT /api/v1/presence/open.
type openToMeetupsRequest struct {
	NomadID string `json:"nomad_id"`
	Open    bool   `json:"open"`
}

// profileRequest is the body of PUT /api/v1/profiles/{id}.
type profileRequest struct {
	DisplayName   string           `json:"display_name"`
	Interests     []string         `json:"interests"`
	Latitude      float64          `json:"latitude"`
	Longitude     float64          `json:"longitude"`
	Timezone      string           `json:"timezone"`
	Availability  availabilityBody `json:"availability"`
	ActivityLevel string           `json:"activity_level"`
	OpenToMeetups bool             `json:"open_to_meetups"`
}

// profileResponse is the wire shape of a stored profile.
type profileResponse struct {
	ID            string           `json:"id"`
	DisplayName   string           `json:"display_name"`
	Interests     []string         `json:"interests"`
	Latitude      float64          `json:"latitude"`
	Longitude     float64          `json:"longitude"`
	Timezone      string           `json:"timezone"`
	Availability  availabilityBody `json:"availability"`
	ActivityLevel string           `json:"activity_level"`
	OpenToMeetups bool             `json:"open_to_meetups"`
	LastSeenAt    *time.Time       `json:"last_seen_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func toProfileResponse(p *nomad.Profile) profileResponse {
	resp := profileResponse{
		ID:          p.ID.String(),
		DisplayName: p.DisplayName,
		Interests:   p.Interests,
		Latitude:    p.Location.Latitude,
		Longitude:   p.Location.Longitude,
		Timezone:    p.Timezone.String(),
		Availability: availabilityBody{
			Morning:   p.Availability.Morning,
			Afternoon: p.Availability.Afternoon,
			Evening:   p.Availability.Evening,
			Night:     p.Availability.Night,
		},
		ActivityLevel: string(p.ActivityLevel),
		OpenToMeetups: p.OpenToMeetups,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if !p.LastSeenAt.IsZero() {
		last := p.LastSeenAt
		resp.LastSeenAt = &last
	}
	return resp
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic service info.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"service": "nomad-meetup-hub",
		"uptime":  s.Uptime().Round(time.Second).String(),
	})
}

// handleHealth returns full health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}

// handleReady is the readiness probe.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())

	if !status.Ready {
		writeJSONError(w, http.StatusServiceUnavailable, "not_ready", status.Message)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"ready": true})
}

// handleLive is the liveness probe. The process is alive if it answers.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]bool{"alive": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCHING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleFindMatches runs one matching round for the requester.
func (s *Server) handleFindMatches(w http.ResponseWriter, r *http.Request) {
	var req findMatchesRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	// An omitted radius falls back to the configured default; explicit
	// values, including invalid ones, pass through to validation.
	if req.RadiusKm == 0 {
		req.RadiusKm = s.config.DefaultRadiusKm
	}

	result, err := s.deps.FindMatchesHandler.Handle(r.Context(), query.FindMatchesQuery{
		RequesterID:   req.RequesterID,
		Interests:     req.Interests,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Timezone:      req.Timezone,
		Availability:  req.Availability.toDomain(),
		ActivityLevel: req.ActivityLevel,
		RadiusKm:      req.RadiusKm,
		Limit:         req.Limit,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveMatchingRound(result.CandidateCount, len(result.Matches), result.SkippedCount)
	}

	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHeartbeat records a presence heartbeat.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	id, err := shared.NewNomadID(req.NomadID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	at := shared.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
	if err := s.deps.Tracker.Heartbeat(r.Context(), id, at); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusAccepted, map[string]bool{"recorded": true})
}

// handleSetOpenToMeetups toggles discovery opt-in.
func (s *Server) handleSetOpenToMeetups(w http.ResponseWriter, r *http.Request) {
	var req openToMeetupsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	id, err := shared.NewNomadID(req.NomadID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if err := s.deps.Tracker.SetOpenToMeetups(r.Context(), id, req.Open); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]bool{"open_to_meetups": req.Open})
}

// handleGetPresence returns the presence snapshot for one nomad.
func (s *Server) handleGetPresence(w http.ResponseWriter, r *http.Request) {
	id, err := shared.NewNomadID(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	info, err := s.deps.Tracker.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, info)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleUpsertProfile creates or replaces a profile.
func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	profile, err := nomad.NewProfile(nomad.NewProfileParams{
		ID:            r.PathValue("id"),
		DisplayName:   req.DisplayName,
		Interests:     req.Interests,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Timezone:      req.Timezone,
		Availability:  req.Availability.toDomain(),
		ActivityLevel: req.ActivityLevel,
		OpenToMeetups: req.OpenToMeetups,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if err := s.deps.ProfileRepo.Upsert(r.Context(), profile); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toProfileResponse(profile))
}

// handleGetProfile returns one profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := shared.NewNomadID(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	profile, err := s.deps.ProfileRepo.GetByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toProfileResponse(profile))
}

// handleDeleteProfile removes a profile.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := shared.NewNomadID(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if err := s.deps.ProfileRepo.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

// writeDomainError maps a domain error to an HTTP status.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsExternalService(err):
		s.logger.Error("upstream failure",
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err),
		)
		writeJSONError(w, http.StatusBadGateway, "upstream_error", "A backing service is unavailable")
	default:
		s.logger.Error("unhandled error",
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
