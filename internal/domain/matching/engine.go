package matching

import (
	"context"
	"sync"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCHING ENGINE
// A stateless, synchronous pipeline: score every candidate independently,
// classify, generate reasons, rank, truncate. The engine performs no I/O
// and owns no long-lived state; the caller constructs one instance and
// injects it wherever matches are computed.
// ══════════════════════════════════════════════════════════════════════════════

// RecommendThreshold is the minimum overall score for a match to be
// flagged as recommended (it also needs at least one reason).
const RecommendThreshold = 70

// Compatibility buckets the overall score into a display band.
type Compatibility string

const (
	// CompatibilityHigh - overall score 80 and above.
	CompatibilityHigh Compatibility = "high"

	// CompatibilityMedium - overall score 60 to 79.
	CompatibilityMedium Compatibility = "medium"

	// CompatibilityLow - everything below 60.
	CompatibilityLow Compatibility = "low"
)

// Classify maps an overall score to its compatibility band and the
// recommendation flag. Total over [0,100]: every score maps to exactly
// one band.
func Classify(overall int, reasonCount int) (Compatibility, bool) {
	var band Compatibility
	switch {
	case overall >= 80:
		band = CompatibilityHigh
	case overall >= 60:
		band = CompatibilityMedium
	default:
		band = CompatibilityLow
	}

	recommended := overall >= RecommendThreshold && reasonCount > 0
	return band, recommended
}

// SmartMatch is one scored, classified, explained candidate.
type SmartMatch struct {
	// Candidate - the profile as supplied by discovery.
	Candidate CandidateProfile

	// Score - the four dimension scores plus the weighted overall.
	Score MatchScore

	// Reasons - ordered reasons (interest, location, time, activity).
	Reasons []MatchReason

	// Compatibility - display band derived from the overall score.
	Compatibility Compatibility

	// Recommended - true iff overall >= 70 and at least one reason.
	Recommended bool

	// DistanceKm - distance recomputed by the engine from full
	// coordinates; the ranking tie-break key.
	DistanceKm float64
}

// SkippedCandidate records a candidate excluded from scoring. One bad
// record never aborts the batch; the caller decides how to log it.
type SkippedCandidate struct {
	ID     shared.NomadID
	Reason error
}

// Config configures an Engine.
type Config struct {
	// Weights - relative dimension weights. Zero value falls back to
	// DefaultWeights.
	Weights Weights

	// ParallelScoring - score candidates on worker goroutines when the
	// pool is large. Ranking always operates on the complete result
	// set, so output is identical to sequential scoring.
	ParallelScoring bool

	// ParallelThreshold - minimum pool size before goroutines are used.
	ParallelThreshold int

	// MaxWorkers - upper bound on scoring goroutines.
	MaxWorkers int
}

// DefaultConfig returns the production engine configuration.
func DefaultConfig() Config {
	return Config{
		Weights:           DefaultWeights(),
		ParallelScoring:   false,
		ParallelThreshold: 64,
		MaxWorkers:        8,
	}
}

// Engine computes ranked smart matches. Construct with NewEngine; the
// zero value is not usable.
type Engine struct {
	weights           Weights
	parallel          bool
	parallelThreshold int
	maxWorkers        int
}

// NewEngine creates a new Engine from the given configuration.
func NewEngine(cfg Config) *Engine {
	zero := Weights{}
	if cfg.Weights == zero {
		cfg.Weights = DefaultWeights()
	}
	if cfg.ParallelThreshold <= 0 {
		cfg.ParallelThreshold = 64
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}
	return &Engine{
		weights:           cfg.Weights,
		parallel:          cfg.ParallelScoring,
		parallelThreshold: cfg.ParallelThreshold,
		maxWorkers:        cfg.MaxWorkers,
	}
}

// Directory is the upstream collaborator that supplies the candidate
// pool: nomads who are online, open to meetups, and inside a naive
// geofence of the requester. The engine never trusts that pre-filter
// for scoring and recomputes distance from full coordinates.
type Directory interface {
	FindNearby(ctx context.Context, center shared.Coordinate, radiusKm float64, exclude shared.NomadID) ([]CandidateProfile, error)
}

// ComputeMatches scores, classifies, explains, ranks, and truncates.
//
// Preference validation failures are fatal and returned before any
// candidate is scored. Candidates with out-of-range coordinates are
// excluded and reported in the skipped slice; they never affect sibling
// candidates. An empty candidate list yields an empty, non-nil result.
func (e *Engine) ComputeMatches(candidates []CandidateProfile, prefs QueryPreferences, limit int) ([]SmartMatch, []SkippedCandidate, error) {
	if err := prefs.Validate(); err != nil {
		return nil, nil, err
	}

	valid := make([]CandidateProfile, 0, len(candidates))
	skipped := make([]SkippedCandidate, 0)
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			skipped = append(skipped, SkippedCandidate{ID: c.ID, Reason: err})
			continue
		}
		valid = append(valid, c)
	}

	var matches []SmartMatch
	if e.parallel && len(valid) >= e.parallelThreshold {
		matches = e.scoreParallel(valid, prefs)
	} else {
		matches = make([]SmartMatch, len(valid))
		for i, c := range valid {
			matches[i] = e.scoreOne(c, prefs)
		}
	}

	return Rank(matches, limit), skipped, nil
}

// scoreOne computes one candidate's SmartMatch. Pure function of its
// inputs.
func (e *Engine) scoreOne(candidate CandidateProfile, prefs QueryPreferences) SmartMatch {
	distance := DistanceKm(prefs.Location, candidate.Location)

	score := MatchScore{
		Interest: InterestScore(prefs.Interests, candidate.Interests),
		Location: LocationScore(distance),
		Time:     TimeScore(prefs.Timezone, candidate.Timezone, prefs.Availability, candidate.Availability),
		Activity: ActivityScore(prefs.ActivityLevel, candidate.ActivityLevel),
	}
	score.Overall = e.weights.Overall(score.Interest, score.Location, score.Time, score.Activity)

	reasons := buildReasons(candidate, prefs, score, distance)
	band, recommended := Classify(score.Overall, len(reasons))

	return SmartMatch{
		Candidate:     candidate,
		Score:         score,
		Reasons:       reasons,
		Compatibility: band,
		Recommended:   recommended,
		DistanceKm:    distance,
	}
}

// scoreParallel fans candidates out over a bounded worker pool. Results
// are written by index, so the materialized slice is identical to the
// sequential path before ranking.
func (e *Engine) scoreParallel(candidates []CandidateProfile, prefs QueryPreferences) []SmartMatch {
	matches := make([]SmartMatch, len(candidates))

	workers := e.maxWorkers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				matches[i] = e.scoreOne(candidates[i], prefs)
			}
		}()
	}

	for i := range candidates {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return matches
}
