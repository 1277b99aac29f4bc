package models

import (
	"fmt"
	"strings"
)

// StatType identifies the projected statistic
type StatType string

const (
	StatPoints                StatType = "points"
	StatRebounds              StatType = "rebounds"
	StatAssists               StatType = "assists"
	StatPointsRebounds        StatType = "points_rebounds"
	StatPointsAssists         StatType = "points_assists"
	StatReboundsAssists       StatType = "rebounds_assists"
	StatPointsReboundsAssists StatType = "points_rebounds_assists"
)

// AllStatTypes lists every supported stat type in a stable order
var AllStatTypes = []StatType{
	StatPoints,
	StatRebounds,
	StatAssists,
	StatPointsRebounds,
	StatPointsAssists,
	StatReboundsAssists,
	StatPointsReboundsAssists,
}

var statAliases = map[string]StatType{
	"pts": StatPoints,
	"reb": StatRebounds,
	"ast": StatAssists,
	"pr":  StatPointsRebounds,
	"pa":  StatPointsAssists,
	"ra":  StatReboundsAssists,
	"pra": StatPointsReboundsAssists,
}

// ParseStatType accepts canonical names and the common short aliases
func ParseStatType(s string) (StatType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "+", "_")
	if alias, ok := statAliases[key]; ok {
		return alias, nil
	}
	st := StatType(key)
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("unknown stat type %q", s)
}

// Valid reports whether the stat type is part of the taxonomy
func (s StatType) Valid() bool {
	for _, st := range AllStatTypes {
		if s == st {
			return true
		}
	}
	return false
}

// Components returns the base stats summed by the stat type
func (s StatType) Components() []StatType {
	switch s {
	case StatPointsRebounds:
		return []StatType{StatPoints, StatRebounds}
	case StatPointsAssists:
		return []StatType{StatPoints, StatAssists}
	case StatReboundsAssists:
		return []StatType{StatRebounds, StatAssists}
	case StatPointsReboundsAssists:
		return []StatType{StatPoints, StatRebounds, StatAssists}
	default:
		return []StatType{s}
	}
}

// Value extracts the stat from a game. The second return is false when any component
// stat is missing from the box score.
func (s StatType) Value(g GameRecord) (float64, bool) {
	total := 0.0
	for _, c := range s.Components() {
		var v *int
		switch c {
		case StatPoints:
			v = g.Points
		case StatRebounds:
			v = g.Rebounds
		case StatAssists:
			v = g.Assists
		}
		if v == nil {
			return 0, false
		}
		total += float64(*v)
	}
	return total, true
}

// SeasonAverage returns the season-table average for the stat type
func (s StatType) SeasonAverage(ps PlayerSeasonStats) float64 {
	total := 0.0
	for _, c := range s.Components() {
		switch c {
		case StatPoints:
			total += ps.Points
		case StatRebounds:
			total += ps.Rebounds
		case StatAssists:
			total += ps.Assists
		}
	}
	return total
}
