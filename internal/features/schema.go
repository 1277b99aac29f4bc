package features

import (
	"math"
	"time"
)

// SchemaVersion identifies the feature layout below. Bump it whenever a feature is
// added, removed or reordered so stored models are never applied to foreign vectors.
const SchemaVersion = "player-form-v1"

// FeatureCount is the width of every FeatureVector
const FeatureCount = 26

// Feature indexes in schema order
const (
	FeatRecentForm = iota
	FeatRecentFormVolatility
	FeatNonScoringContribution
	FeatSeasonAvgTarget
	FeatIsHome
	FeatTeamPace
	FeatOpponentPace
	FeatPaceInteraction
	FeatIsInjured
	FeatRestDaysLog
	FeatOpponentPointsAllowed
	FeatTeamPointsScored
	FeatIsStarter
	FeatHistoricalMinutes
	FeatStarterMinutesInteraction
	FeatUsageRate
	FeatThreePointAttempts
	FeatThreePointPct
	FeatTwoPointPct
	FeatThreePointShare
	FeatShotVolume
	FeatOpponentThreePointDefense
	FeatOpponentPostDefense
	FeatIsPlaymaker
	FeatAssistToPointsRatio
	FeatTimeDecayWeight
)

var featureNames = [FeatureCount]string{
	"recent_form",
	"recent_form_volatility",
	"non_scoring_contribution",
	"season_avg_target",
	"is_home",
	"team_pace",
	"opponent_pace",
	"pace_interaction",
	"is_injured",
	"rest_days_log",
	"opponent_points_allowed",
	"team_points_scored",
	"is_starter",
	"historical_minutes",
	"starter_minutes_interaction",
	"usage_rate",
	"three_point_attempts",
	"three_point_pct",
	"two_point_pct",
	"three_point_share",
	"shot_volume",
	"opponent_three_point_defense",
	"opponent_post_defense",
	"is_playmaker",
	"assist_to_points_ratio",
	"time_decay_weight",
}

// FeatureNames returns a copy of the ordered feature names
func FeatureNames() []string {
	names := make([]string, FeatureCount)
	copy(names, featureNames[:])
	return names
}

// FeatureName returns the name at index i
func FeatureName(i int) string {
	return featureNames[i]
}

// MatchesSchema reports whether a model's stored layout matches this schema
func MatchesSchema(names []string, version string) bool {
	if version != SchemaVersion || len(names) != FeatureCount {
		return false
	}
	for i, name := range names {
		if featureNames[i] != name {
			return false
		}
	}
	return true
}

// FeatureVector is the fixed-order numeric input of the regression model
type FeatureVector struct {
	SchemaVersion string                `json:"schema_version"`
	Values        [FeatureCount]float64 `json:"values"`
}

// NewFeatureVector returns a zeroed vector stamped with the current schema
func NewFeatureVector() FeatureVector {
	return FeatureVector{SchemaVersion: SchemaVersion}
}

// Slice returns the values as a slice
func (fv FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, fv.Values[:])
	return out
}

// Map returns the values keyed by feature name
func (fv FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, v := range fv.Values {
		out[featureNames[i]] = v
	}
	return out
}

// Validate returns an *InvalidFeatureError for the first non-finite value
func (fv FeatureVector) Validate() error {
	for i, v := range fv.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidFeatureError{Feature: featureNames[i], Value: v}
		}
	}
	return nil
}

// TrainingSample is one (features, target) row fed to the trainer
type TrainingSample struct {
	Features     FeatureVector `json:"features"`
	Target       float64       `json:"target"`
	SampleWeight float64       `json:"sample_weight"`
	GameDate     time.Time     `json:"game_date"`
	Season       string        `json:"season"`
}
