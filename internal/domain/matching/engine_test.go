package matching

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
)

func testPrefs() QueryPreferences {
	return QueryPreferences{
		Interests:     []string{"surfing", "coworking", "coffee"},
		Location:      shared.Coordinate{Latitude: 13.7563, Longitude: 100.5018},
		RadiusKm:      50,
		Timezone:      "Asia/Bangkok",
		Availability:  Availability{Morning: true, Afternoon: true, Evening: true, Night: true},
		ActivityLevel: ActivityMedium,
	}
}

func testCandidate(id string) CandidateProfile {
	return CandidateProfile{
		ID:            shared.NomadID(id),
		DisplayName:   "Nomad " + id,
		Interests:     []string{"surfing", "coworking", "coffee"},
		Location:      shared.Coordinate{Latitude: 13.7563, Longitude: 100.5018},
		Timezone:      "Asia/Bangkok",
		Availability:  Availability{Morning: true, Afternoon: true, Evening: true, Night: true},
		ActivityLevel: ActivityMedium,
	}
}

func TestComputeMatches_PerfectMatch(t *testing.T) {
	// Scenario: candidate identical to preferences in interests,
	// location, timezone, availability, and activity level.
	engine := NewEngine(DefaultConfig())

	matches, skipped, err := engine.ComputeMatches(
		[]CandidateProfile{testCandidate("7c9e6679-7425-40de-944b-e07fc1f90ae7")},
		testPrefs(), 10)

	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, 100, m.Score.Overall)
	assert.Equal(t, MatchScore{Interest: 100, Location: 100, Time: 100, Activity: 100, Overall: 100}, m.Score)
	assert.Equal(t, CompatibilityHigh, m.Compatibility)
	assert.True(t, m.Recommended)
	assert.Len(t, m.Reasons, 4)
	assert.Zero(t, m.DistanceKm)
}

func TestComputeMatches_PoorMatch(t *testing.T) {
	// Scenario: disjoint interests, ~200 km away, opposite activity
	// tier, no availability overlap.
	engine := NewEngine(DefaultConfig())
	prefs := testPrefs()

	candidate := testCandidate("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	candidate.Interests = []string{"chess", "museums"}
	candidate.Location = shared.Coordinate{Latitude: 15.55, Longitude: 100.5018} // ~200 km north
	candidate.Timezone = "Europe/Berlin"
	candidate.Availability = Availability{}
	candidate.ActivityLevel = ActivityHigh
	prefs.ActivityLevel = ActivityLow

	matches, _, err := engine.ComputeMatches([]CandidateProfile{candidate}, prefs, 10)

	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Less(t, m.Score.Overall, 40)
	assert.False(t, m.Recommended)
	assert.Equal(t, CompatibilityLow, m.Compatibility)
	assert.Empty(t, m.Reasons)
	assert.Greater(t, m.DistanceKm, 150.0)
}

func TestComputeMatches_EmptyCandidateList(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	matches, skipped, err := engine.ComputeMatches(nil, testPrefs(), 10)

	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
	assert.Empty(t, skipped)
}

func TestComputeMatches_InvalidPreferences(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	tests := []struct {
		name   string
		mutate func(*QueryPreferences)
	}{
		{"negative radius", func(p *QueryPreferences) { p.RadiusKm = -5 }},
		{"zero radius", func(p *QueryPreferences) { p.RadiusKm = 0 }},
		{"latitude out of range", func(p *QueryPreferences) { p.Location.Latitude = 91 }},
		{"longitude out of range", func(p *QueryPreferences) { p.Location.Longitude = -181 }},
		{"NaN latitude", func(p *QueryPreferences) { p.Location.Latitude = math.NaN() }},
		{"malformed timezone", func(p *QueryPreferences) { p.Timezone = "Not/AZone" }},
		{"empty timezone", func(p *QueryPreferences) { p.Timezone = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := testPrefs()
			tt.mutate(&prefs)

			matches, skipped, err := engine.ComputeMatches(
				[]CandidateProfile{testCandidate("7c9e6679-7425-40de-944b-e07fc1f90ae7")}, prefs, 10)

			require.Error(t, err)
			assert.True(t, shared.IsValidation(err), "expected a validation error, got %v", err)
			assert.Nil(t, matches)
			assert.Nil(t, skipped)
		})
	}
}

func TestComputeMatches_InvalidCandidateIsSkippedNotFatal(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	good := testCandidate("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	bad := testCandidate("16fd2706-8baf-433b-82eb-8c7fada847da")
	bad.Location.Latitude = 123 // out of range

	matches, skipped, err := engine.ComputeMatches([]CandidateProfile{bad, good}, testPrefs(), 10)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, good.ID, matches[0].Candidate.ID)

	require.Len(t, skipped, 1)
	assert.Equal(t, bad.ID, skipped[0].ID)
	assert.ErrorIs(t, skipped[0].Reason, shared.ErrInvalidLatitude)
}

func TestComputeMatches_LimitTruncates(t *testing.T) {
	// Scenario: 5 candidates, limit 2 -> exactly the top 2 by the
	// deterministic order.
	engine := NewEngine(DefaultConfig())
	prefs := testPrefs()

	ids := []string{
		"00000000-0000-4000-8000-000000000001",
		"00000000-0000-4000-8000-000000000002",
		"00000000-0000-4000-8000-000000000003",
		"00000000-0000-4000-8000-000000000004",
		"00000000-0000-4000-8000-000000000005",
	}

	candidates := make([]CandidateProfile, 0, len(ids))
	for i, id := range ids {
		c := testCandidate(id)
		// Spread candidates out so scores differ.
		c.Location.Latitude += float64(i) * 0.2
		candidates = append(candidates, c)
	}

	matches, _, err := engine.ComputeMatches(candidates, prefs, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	all, _, err := engine.ComputeMatches(candidates, prefs, len(candidates))
	require.NoError(t, err)
	assert.Equal(t, all[0].Candidate.ID, matches[0].Candidate.ID)
	assert.Equal(t, all[1].Candidate.ID, matches[1].Candidate.ID)
	assert.GreaterOrEqual(t, matches[0].Score.Overall, matches[1].Score.Overall)
}

func TestComputeMatches_Deterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	prefs := testPrefs()

	candidates := make([]CandidateProfile, 0, 30)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 30; i++ {
		c := testCandidate(uuidLike(i))
		c.Location.Latitude += rng.Float64() * 2
		c.Location.Longitude += rng.Float64() * 2
		if i%3 == 0 {
			c.Interests = []string{"coffee"}
		}
		if i%4 == 0 {
			c.ActivityLevel = ActivityHigh
		}
		candidates = append(candidates, c)
	}

	first, _, err := engine.ComputeMatches(candidates, prefs, 10)
	require.NoError(t, err)

	shuffled := make([]CandidateProfile, len(candidates))
	copy(shuffled, candidates)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	second, _, err := engine.ComputeMatches(shuffled, prefs, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeMatches_ParallelMatchesSequential(t *testing.T) {
	prefs := testPrefs()

	candidates := make([]CandidateProfile, 0, 200)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		c := testCandidate(uuidLike(i))
		c.Location.Latitude += rng.Float64() * 3
		c.Location.Longitude -= rng.Float64() * 3
		candidates = append(candidates, c)
	}

	sequential := NewEngine(DefaultConfig())

	cfg := DefaultConfig()
	cfg.ParallelScoring = true
	cfg.ParallelThreshold = 10
	cfg.MaxWorkers = 4
	parallel := NewEngine(cfg)

	want, _, err := sequential.ComputeMatches(candidates, prefs, 50)
	require.NoError(t, err)
	got, _, err := parallel.ComputeMatches(candidates, prefs, 50)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestComputeMatches_ScoreInvariants(t *testing.T) {
	// Every sub-score and overall in [0,100], and overall recomputes
	// exactly from the returned sub-scores.
	engine := NewEngine(DefaultConfig())
	prefs := testPrefs()
	weights := DefaultWeights()

	rng := rand.New(rand.NewSource(99))
	candidates := make([]CandidateProfile, 0, 60)
	levels := []ActivityLevel{ActivityLow, ActivityMedium, ActivityHigh}
	tags := []string{"surfing", "coworking", "coffee", "hiking", "photography", "yoga"}
	for i := 0; i < 60; i++ {
		c := testCandidate(uuidLike(i))
		c.Location.Latitude = rng.Float64()*180 - 90
		c.Location.Longitude = rng.Float64()*360 - 180
		c.ActivityLevel = levels[rng.Intn(len(levels))]
		c.Interests = tags[:rng.Intn(len(tags)+1)]
		c.Availability = Availability{
			Morning:   rng.Intn(2) == 0,
			Afternoon: rng.Intn(2) == 0,
			Evening:   rng.Intn(2) == 0,
			Night:     rng.Intn(2) == 0,
		}
		candidates = append(candidates, c)
	}

	matches, _, err := engine.ComputeMatches(candidates, prefs, len(candidates))
	require.NoError(t, err)
	require.Len(t, matches, len(candidates))

	for _, m := range matches {
		assert.True(t, m.Score.IsValid(), "score out of range: %+v", m.Score)
		recomputed := weights.Overall(m.Score.Interest, m.Score.Location, m.Score.Time, m.Score.Activity)
		assert.Equal(t, recomputed, m.Score.Overall)

		if m.Recommended {
			assert.GreaterOrEqual(t, m.Score.Overall, RecommendThreshold)
			assert.NotEmpty(t, m.Reasons)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		overall     int
		reasons     int
		band        Compatibility
		recommended bool
	}{
		{100, 4, CompatibilityHigh, true},
		{80, 1, CompatibilityHigh, true},
		{79, 1, CompatibilityMedium, true},
		{70, 1, CompatibilityMedium, true},
		// Overall clears the recommendation bar but no dimension
		// individually qualified a reason.
		{70, 0, CompatibilityMedium, false},
		{69, 1, CompatibilityMedium, false},
		{60, 0, CompatibilityMedium, false},
		{59, 0, CompatibilityLow, false},
		{0, 0, CompatibilityLow, false},
	}

	for _, tt := range tests {
		band, recommended := Classify(tt.overall, tt.reasons)
		assert.Equal(t, tt.band, band, "overall=%d", tt.overall)
		assert.Equal(t, tt.recommended, recommended, "overall=%d reasons=%d", tt.overall, tt.reasons)
	}
}

func TestBuildReasons_FixedOrderAndThreshold(t *testing.T) {
	prefs := testPrefs()
	candidate := testCandidate("7c9e6679-7425-40de-944b-e07fc1f90ae7")

	score := MatchScore{Interest: 100, Location: 90, Time: 75, Activity: 100}
	reasons := buildReasons(candidate, prefs, score, 8.4)

	require.Len(t, reasons, 4)
	assert.Equal(t, DimensionInterest, reasons[0].Dimension)
	assert.Equal(t, DimensionLocation, reasons[1].Dimension)
	assert.Equal(t, DimensionTime, reasons[2].Dimension)
	assert.Equal(t, DimensionActivity, reasons[3].Dimension)

	assert.Contains(t, reasons[0].Description, "surfing")
	assert.Contains(t, reasons[1].Description, "8.4 km")

	// Exactly at the threshold no reason is emitted.
	score = MatchScore{Interest: 70, Location: 70, Time: 70, Activity: 70}
	assert.Empty(t, buildReasons(candidate, prefs, score, 8.4))
}

func TestBuildReasons_InterestTagCap(t *testing.T) {
	prefs := testPrefs()
	prefs.Interests = []string{"a", "b", "c", "d", "e"}
	candidate := testCandidate("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	candidate.Interests = []string{"a", "b", "c", "d", "e"}

	reasons := buildReasons(candidate, prefs, MatchScore{Interest: 100}, 0)
	require.Len(t, reasons, 1)
	assert.Equal(t, "Shared interests: a, b, c", reasons[0].Description)
}

// uuidLike builds a deterministic UUID-shaped ID for test fixtures.
func uuidLike(i int) string {
	hex := "0123456789abcdef"
	return "00000000-0000-4000-8000-0000000000" + string(hex[(i/16)%16]) + string(hex[i%16])
}
