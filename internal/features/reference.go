package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/prop-projector/internal/models"
)

// LeagueAverages are the fallbacks used when a team row is missing
type LeagueAverages struct {
	Pace                 float64 `json:"pace"`
	PointsScored         float64 `json:"points_scored"`
	PointsAllowed        float64 `json:"points_allowed"`
	ThreePointPctAllowed float64 `json:"three_point_pct_allowed"`
	PaintPointsAllowed   float64 `json:"paint_points_allowed"`
}

// DefaultLeagueAverages is used for seasons with no team rows at all
func DefaultLeagueAverages() LeagueAverages {
	return LeagueAverages{
		Pace:                 99.5,
		PointsScored:         113.0,
		PointsAllowed:        113.0,
		ThreePointPctAllowed: 0.362,
		PaintPointsAllowed:   49.0,
	}
}

type seasonKey struct {
	season string
	id     string
}

// ReferenceData bundles the league-wide and opponent lookup tables
type ReferenceData struct {
	teams    map[seasonKey]models.TeamSeasonStats
	players  map[seasonKey]models.PlayerSeasonStats
	usage    map[seasonKey]float64
	injuries map[string]bool
	league   map[string]LeagueAverages
}

// NewReferenceData indexes the raw table rows
func NewReferenceData(
	teams []models.TeamSeasonStats,
	players []models.PlayerSeasonStats,
	injuries []models.PlayerInjury,
	usage []models.PlayerUsage,
) *ReferenceData {
	ref := &ReferenceData{
		teams:    make(map[seasonKey]models.TeamSeasonStats, len(teams)),
		players:  make(map[seasonKey]models.PlayerSeasonStats, len(players)),
		usage:    make(map[seasonKey]float64, len(usage)),
		injuries: make(map[string]bool, len(injuries)),
		league:   make(map[string]LeagueAverages),
	}

	bySeason := make(map[string][]models.TeamSeasonStats)
	for _, t := range teams {
		ref.teams[seasonKey{t.Season, t.Team}] = t
		bySeason[t.Season] = append(bySeason[t.Season], t)
	}
	for season, rows := range bySeason {
		ref.league[season] = leagueAveragesFrom(rows)
	}
	for _, p := range players {
		ref.players[seasonKey{p.Season, p.PlayerID}] = p
	}
	for _, u := range usage {
		ref.usage[seasonKey{u.Season, u.PlayerID}] = u.UsageRate
	}
	for _, inj := range injuries {
		if inj.Active {
			ref.injuries[inj.PlayerID] = true
		}
	}
	return ref
}

// EmptyReferenceData has no rows; every lookup falls back to league defaults
func EmptyReferenceData() *ReferenceData {
	return NewReferenceData(nil, nil, nil, nil)
}

func leagueAveragesFrom(rows []models.TeamSeasonStats) LeagueAverages {
	defaults := DefaultLeagueAverages()
	field := func(get func(models.TeamSeasonStats) float64, fallback float64) float64 {
		values := make([]float64, 0, len(rows))
		for _, r := range rows {
			// unfilled columns are stored as 0
			if v := get(r); v > 0 && !math.IsInf(v, 0) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return fallback
		}
		return stat.Mean(values, nil)
	}
	return LeagueAverages{
		Pace:                 field(func(r models.TeamSeasonStats) float64 { return r.Pace }, defaults.Pace),
		PointsScored:         field(func(r models.TeamSeasonStats) float64 { return r.PointsScored }, defaults.PointsScored),
		PointsAllowed:        field(func(r models.TeamSeasonStats) float64 { return r.PointsAllowed }, defaults.PointsAllowed),
		ThreePointPctAllowed: field(func(r models.TeamSeasonStats) float64 { return r.ThreePointPctAllowed }, defaults.ThreePointPctAllowed),
		PaintPointsAllowed:   field(func(r models.TeamSeasonStats) float64 { return r.PaintPointsAllowed }, defaults.PaintPointsAllowed),
	}
}

// League returns the league averages for a season
func (r *ReferenceData) League(season string) LeagueAverages {
	if avg, ok := r.league[season]; ok {
		return avg
	}
	return DefaultLeagueAverages()
}

// Team looks up a team's season row
func (r *ReferenceData) Team(season, team string) (models.TeamSeasonStats, bool) {
	t, ok := r.teams[seasonKey{season, team}]
	return t, ok
}

// Player looks up a player's season averages
func (r *ReferenceData) Player(season, playerID string) (models.PlayerSeasonStats, bool) {
	p, ok := r.players[seasonKey{season, playerID}]
	return p, ok
}

// UsageRate looks up a published usage rate
func (r *ReferenceData) UsageRate(season, playerID string) (float64, bool) {
	u, ok := r.usage[seasonKey{season, playerID}]
	return u, ok && u > 0
}

// Injured reports whether the player is on the active injury report
func (r *ReferenceData) Injured(playerID string) bool {
	return r.injuries[playerID]
}

// TeamPace returns the team's pace or the league average
func (r *ReferenceData) TeamPace(season, team string) float64 {
	if t, ok := r.Team(season, team); ok && t.Pace > 0 {
		return t.Pace
	}
	return r.League(season).Pace
}

// PointsScored returns the team's scoring average or the league average
func (r *ReferenceData) PointsScored(season, team string) float64 {
	if t, ok := r.Team(season, team); ok && t.PointsScored > 0 {
		return t.PointsScored
	}
	return r.League(season).PointsScored
}

// PointsAllowed returns the team's points allowed or the league average
func (r *ReferenceData) PointsAllowed(season, team string) float64 {
	if t, ok := r.Team(season, team); ok && t.PointsAllowed > 0 {
		return t.PointsAllowed
	}
	return r.League(season).PointsAllowed
}

// ThreePointDefense returns opponent 3P% allowed or the league average
func (r *ReferenceData) ThreePointDefense(season, team string) float64 {
	if t, ok := r.Team(season, team); ok && t.ThreePointPctAllowed > 0 {
		return t.ThreePointPctAllowed
	}
	return r.League(season).ThreePointPctAllowed
}

// PostDefense returns paint points allowed or the league average
func (r *ReferenceData) PostDefense(season, team string) float64 {
	if t, ok := r.Team(season, team); ok && t.PaintPointsAllowed > 0 {
		return t.PaintPointsAllowed
	}
	return r.League(season).PaintPointsAllowed
}
