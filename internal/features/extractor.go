package features

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/pkg/logger"
)

// ExtractorConfig tunes eligibility and feature constants
type ExtractorConfig struct {
	MinPriorGames   int     `json:"min_prior_games"`
	MinMinutes      float64 `json:"min_minutes"`
	TimeDecayLambda float64 `json:"time_decay_lambda"`
	StarterMinutes  float64 `json:"starter_minutes"`
	UsageCap        float64 `json:"usage_cap"`
	PlaymakerRatio  float64 `json:"playmaker_ratio"`
}

// DefaultExtractorConfig returns the production constants
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MinPriorGames:   15,
		MinMinutes:      10,
		TimeDecayLambda: 0.001,
		StarterMinutes:  25,
		UsageCap:        0.4,
		PlaymakerRatio:  0.3,
	}
}

const (
	recentWindow   = 5
	extendedWindow = 15
	defaultUsage   = 0.2
)

// SampleOptions controls sample weighting and the as-of cutoff for training
type SampleOptions struct {
	CurrentSeason       string    `json:"current_season"`
	CurrentSeasonWeight float64   `json:"current_season_weight"`
	PriorSeasonWeight   float64   `json:"prior_season_weight"`
	AsOf                time.Time `json:"as_of"`
}

// DefaultSampleOptions weights the current season at 1.5x
func DefaultSampleOptions(currentSeason string) SampleOptions {
	return SampleOptions{
		CurrentSeason:       currentSeason,
		CurrentSeasonWeight: 1.5,
		PriorSeasonWeight:   1.0,
	}
}

// ExtractionReport counts what happened to each game during sample extraction
type ExtractionReport struct {
	GamesSeen          int `json:"games_seen"`
	SamplesBuilt       int `json:"samples_built"`
	SkippedHistory     int `json:"skipped_history"`
	SkippedMinutes     int `json:"skipped_minutes"`
	SkippedMissingStat int `json:"skipped_missing_stat"`
	SkippedInvalid     int `json:"skipped_invalid"`
}

// Add merges another report into r
func (r *ExtractionReport) Add(o ExtractionReport) {
	r.GamesSeen += o.GamesSeen
	r.SamplesBuilt += o.SamplesBuilt
	r.SkippedHistory += o.SkippedHistory
	r.SkippedMinutes += o.SkippedMinutes
	r.SkippedMissingStat += o.SkippedMissingStat
	r.SkippedInvalid += o.SkippedInvalid
}

// Extractor converts game histories into feature vectors
type Extractor struct {
	config ExtractorConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewExtractor creates a new feature extractor instance
func NewExtractor(config ExtractorConfig, log *logrus.Logger) *Extractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Extractor{
		config: config,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the clock used for the as-of cutoff and time decay
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Config returns the extractor configuration
func (e *Extractor) Config() ExtractorConfig {
	return e.config
}

// ExtractTrainingSamples featurizes every eligible game in one player's history
func (e *Extractor) ExtractTrainingSamples(
	ctx context.Context,
	history []models.GameRecord,
	stat models.StatType,
	ref *ReferenceData,
	opts SampleOptions,
) ([]TrainingSample, ExtractionReport, error) {
	var report ExtractionReport
	if ref == nil {
		ref = EmptyReferenceData()
	}
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = e.now()
	}

	sorted := sortedByDate(history)
	samples := make([]TrainingSample, 0, len(sorted))

	for i, game := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		if !game.GameDate.Before(asOf) {
			continue
		}
		report.GamesSeen++

		if game.Minutes <= e.config.MinMinutes {
			report.SkippedMinutes++
			continue
		}
		target, ok := stat.Value(game)
		if !ok {
			report.SkippedMissingStat++
			continue
		}

		prior := gamesBefore(sorted[:i], game.GameDate)
		fv, err := e.featurize(prior, models.ContextOf(game), stat, ref, asOf)
		switch {
		case errors.Is(err, ErrInsufficientHistory):
			report.SkippedHistory++
			continue
		case errors.Is(err, ErrInvalidFeature):
			report.SkippedInvalid++
			e.logger.WithFields(logrus.Fields{
				"player_id": game.PlayerID,
				"game_date": game.GameDate.Format("2006-01-02"),
				"stat_type": stat,
				"error":     err.Error(),
			}).Warn("Excluding game with non-finite feature")
			continue
		case err != nil:
			return nil, report, err
		}

		weight := opts.PriorSeasonWeight
		if game.Season == opts.CurrentSeason {
			weight = opts.CurrentSeasonWeight
		}
		if weight <= 0 {
			weight = 1
		}

		samples = append(samples, TrainingSample{
			Features:     fv,
			Target:       target,
			SampleWeight: weight,
			GameDate:     game.GameDate,
			Season:       game.Season,
		})
		report.SamplesBuilt++
	}

	return samples, report, nil
}

// ExtractGame featurizes a single game from the games strictly before it. Used for
// upcoming games at projection time.
func (e *Extractor) ExtractGame(
	history []models.GameRecord,
	target models.GameContext,
	stat models.StatType,
	ref *ReferenceData,
) (FeatureVector, error) {
	if ref == nil {
		ref = EmptyReferenceData()
	}
	asOf := e.now()
	cutoff := target.GameDate
	if cutoff.IsZero() || asOf.Before(cutoff) {
		cutoff = asOf
	}
	prior := gamesBefore(sortedByDate(history), cutoff)
	if target.GameDate.IsZero() {
		target.GameDate = asOf
	}
	return e.featurize(prior, target, stat, ref, asOf)
}

func (e *Extractor) featurize(
	prior []models.GameRecord,
	target models.GameContext,
	stat models.StatType,
	ref *ReferenceData,
	asOf time.Time,
) (FeatureVector, error) {
	if len(prior) < e.config.MinPriorGames {
		return FeatureVector{}, fmt.Errorf("%w: %d prior games, need %d",
			ErrInsufficientHistory, len(prior), e.config.MinPriorGames)
	}

	fv := NewFeatureVector()
	v := &fv.Values
	season := target.Season
	last5 := lastN(prior, recentWindow)
	last15 := lastN(prior, extendedWindow)
	latest := prior[len(prior)-1]

	team := target.Team
	if team == "" {
		team = latest.Team
	}
	seasonStats, hasSeason := ref.Player(season, target.PlayerID)

	// Recent form
	points5 := windowMean(last5, pointsOf)
	points15 := windowMean(last15, pointsOf)
	v[FeatRecentForm] = 0.6*points5 + 0.4*points15
	v[FeatRecentFormVolatility] = windowPopStdDev(last5, pointsOf)
	v[FeatNonScoringContribution] = windowMean(last5, assistsPlusReboundsOf)
	if hasSeason {
		v[FeatSeasonAvgTarget] = stat.SeasonAverage(seasonStats)
	}

	// Game context
	v[FeatIsHome] = boolFloat(target.IsHome)
	teamPace := ref.TeamPace(season, team)
	opponentPace := ref.TeamPace(season, target.Opponent)
	v[FeatTeamPace] = teamPace
	v[FeatOpponentPace] = opponentPace
	v[FeatPaceInteraction] = teamPace * opponentPace
	v[FeatIsInjured] = boolFloat(ref.Injured(target.PlayerID))

	restDays := target.GameDate.Sub(latest.GameDate).Hours() / 24
	if restDays < 0 {
		restDays = 0
	}
	v[FeatRestDaysLog] = math.Log(restDays + 1)
	v[FeatOpponentPointsAllowed] = ref.PointsAllowed(season, target.Opponent)
	v[FeatTeamPointsScored] = ref.PointsScored(season, team)

	// Role
	minutes5 := windowMean(last5, minutesOf)
	expectedMinutes := e.config.StarterMinutes
	switch {
	case hasSeason && seasonStats.Minutes > 0:
		expectedMinutes = seasonStats.Minutes
	case len(last5) > 0:
		expectedMinutes = minutes5
	}
	starter := boolFloat(expectedMinutes >= e.config.StarterMinutes)
	v[FeatIsStarter] = starter
	v[FeatHistoricalMinutes] = minutes5
	v[FeatStarterMinutesInteraction] = starter * minutes5

	if usage, ok := ref.UsageRate(season, target.PlayerID); ok {
		v[FeatUsageRate] = usage
	} else {
		v[FeatUsageRate] = e.approximateUsage(last5)
	}

	// Shooting profile
	if hasSeason && seasonStats.HasShootingSplit() {
		fga := seasonStats.FieldGoalsAttempted
		tpa := seasonStats.ThreePointersAttempted
		v[FeatThreePointAttempts] = tpa
		v[FeatThreePointPct] = ratio(seasonStats.ThreePointersMade, tpa)
		v[FeatTwoPointPct] = ratio(seasonStats.FieldGoalsMade-seasonStats.ThreePointersMade, fga-tpa)
		v[FeatThreePointShare] = ratio(tpa, fga)
		v[FeatShotVolume] = fga
	} else {
		totals := sumShooting(last5)
		games := float64(totals.games)
		v[FeatThreePointAttempts] = ratio(totals.tpa, games)
		v[FeatThreePointPct] = ratio(totals.tpm, totals.tpa)
		v[FeatTwoPointPct] = ratio(totals.fgm-totals.tpm, totals.fga-totals.tpa)
		v[FeatThreePointShare] = ratio(totals.tpa, totals.fga)
		v[FeatShotVolume] = ratio(totals.fga, games)
	}
	v[FeatOpponentThreePointDefense] = ref.ThreePointDefense(season, target.Opponent)
	v[FeatOpponentPostDefense] = ref.PostDefense(season, target.Opponent)

	// Playmaking
	assistRatio := ratio(windowMean(last5, assistsOf), points5)
	v[FeatIsPlaymaker] = boolFloat(assistRatio > e.config.PlaymakerRatio)
	v[FeatAssistToPointsRatio] = assistRatio

	daysSince := asOf.Sub(target.GameDate).Hours() / 24
	if daysSince < 0 {
		daysSince = 0
	}
	v[FeatTimeDecayWeight] = math.Exp(-e.config.TimeDecayLambda * daysSince)

	if err := fv.Validate(); err != nil {
		return fv, err
	}
	return fv, nil
}

// approximateUsage estimates usage from box-score involvement per minute
func (e *Extractor) approximateUsage(last5 []models.GameRecord) float64 {
	minutes := windowMean(last5, minutesOf)
	if minutes <= 0 {
		return defaultUsage
	}
	involvement := windowMean(last5, pointsOf) +
		0.5*windowMean(last5, assistsOf) +
		0.3*windowMean(last5, reboundsOf)
	return math.Min(involvement/(minutes*2.5), e.config.UsageCap)
}
