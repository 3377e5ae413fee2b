package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// FEATURE FLAGS
// ══════════════════════════════════════════════════════════════════════════════

// Feature describes a single toggleable feature.
type Feature struct {
	// Enabled is the master switch.
	Enabled bool

	// RolloutPercent enables the feature for a stable slice of nomads
	// (0-100). Ignored when Enabled is false.
	RolloutPercent int

	// EnabledFrom/EnabledUntil bound the feature in time. Zero values
	// mean unbounded.
	EnabledFrom  time.Time
	EnabledUntil time.Time
}

// Known feature names.
const (
	// FeatureParallelScoring routes large candidate sets through the
	// bounded scoring pool.
	FeatureParallelScoring = "matching.parallel_scoring"

	// FeatureStrictDiscovery fails a discovery round on the first
	// presence error instead of skipping the record.
	FeatureStrictDiscovery = "discovery.strict"
)

// FeatureFlags manages feature toggles with percentage rollout.
//
// Rollout is consistent: the same nomad ID always lands on the same
// side of the percentage cut, so a nomad does not flip between
// behaviors across requests.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]Feature
}

// defaultFeatures returns the built-in feature set.
func defaultFeatures() map[string]Feature {
	return map[string]Feature{
		FeatureParallelScoring: {Enabled: false, RolloutPercent: 100},
		FeatureStrictDiscovery: {Enabled: false, RolloutPercent: 100},
	}
}

// LoadFeatureFlags builds the feature set from defaults plus FEATURE_*
// environment overrides.
//
// Override format:
//
//	FEATURE_MATCHING_PARALLEL_SCORING=true
//	FEATURE_MATCHING_PARALLEL_SCORING=50%     (enabled for 50% of nomads)
//	FEATURE_DISCOVERY_STRICT=false
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: defaultFeatures()}

	for name := range ff.features {
		envKey := "FEATURE_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(name))
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		f := ff.features[name]
		if pct, ok := parsePercent(val); ok {
			f.Enabled = pct > 0
			f.RolloutPercent = pct
		} else if b, err := strconv.ParseBool(val); err == nil {
			f.Enabled = b
			f.RolloutPercent = 100
		}
		ff.features[name] = f
	}

	return ff
}

func parsePercent(val string) (int, bool) {
	if !strings.HasSuffix(val, "%") {
		return 0, false
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(val, "%"))
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}

// IsEnabled reports whether the feature is on, ignoring rollout.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[name]
	if !ok {
		return false
	}
	return f.enabledNow(time.Now())
}

// IsEnabledFor reports whether the feature is on for a specific nomad,
// applying the percentage rollout.
func (ff *FeatureFlags) IsEnabledFor(name, nomadID string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[name]
	if !ok || !f.enabledNow(time.Now()) {
		return false
	}

	if f.RolloutPercent >= 100 {
		return true
	}
	if f.RolloutPercent <= 0 {
		return false
	}

	return bucketOf(name, nomadID) < f.RolloutPercent
}

// SetRolloutPercent adjusts a feature's rollout at runtime.
func (ff *FeatureFlags) SetRolloutPercent(name string, pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	ff.mu.Lock()
	defer ff.mu.Unlock()

	f, ok := ff.features[name]
	if !ok {
		f = Feature{Enabled: pct > 0}
	}
	f.RolloutPercent = pct
	ff.features[name] = f
}

// Set replaces a feature definition entirely.
func (ff *FeatureFlags) Set(name string, f Feature) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	ff.features[name] = f
}

// Snapshot returns a copy of the current feature set, for diagnostics.
func (ff *FeatureFlags) Snapshot() map[string]Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make(map[string]Feature, len(ff.features))
	for k, v := range ff.features {
		out[k] = v
	}
	return out
}

func (f Feature) enabledNow(now time.Time) bool {
	if !f.Enabled {
		return false
	}
	if !f.EnabledFrom.IsZero() && now.Before(f.EnabledFrom) {
		return false
	}
	if !f.EnabledUntil.IsZero() && now.After(f.EnabledUntil) {
		return false
	}
	return true
}

// bucketOf maps (feature, nomad) to a stable bucket in [0, 100).
// Hashing the pair keeps rollout slices independent across features.
func bucketOf(feature, nomadID string) int {
	h := fnv.New32a()
	h.Write([]byte(feature))
	h.Write([]byte(":"))
	h.Write([]byte(nomadID))
	return int(h.Sum32() % 100)
}
