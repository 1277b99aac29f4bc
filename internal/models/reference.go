package models

import "time"

// TeamSeasonStats holds season aggregates for a team used as opponent and pace context
type TeamSeasonStats struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Team                 string    `gorm:"size:8;not null;uniqueIndex:idx_team_season" json:"team"`
	Season               string    `gorm:"not null;uniqueIndex:idx_team_season" json:"season"`
	Pace                 float64   `json:"pace"`
	PointsScored         float64   `json:"points_scored"`
	PointsAllowed        float64   `json:"points_allowed"`
	ThreePointPctAllowed float64   `json:"three_point_pct_allowed"`
	PaintPointsAllowed   float64   `json:"paint_points_allowed"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (TeamSeasonStats) TableName() string {
	return "team_season_stats"
}

// PlayerSeasonStats holds per-game season averages for a player
type PlayerSeasonStats struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	PlayerID               string    `gorm:"not null;uniqueIndex:idx_player_season" json:"player_id"`
	Season                 string    `gorm:"not null;uniqueIndex:idx_player_season" json:"season"`
	GamesPlayed            int       `json:"games_played"`
	Minutes                float64   `json:"minutes"`
	Points                 float64   `json:"points"`
	Rebounds               float64   `json:"rebounds"`
	Assists                float64   `json:"assists"`
	FieldGoalsAttempted    float64   `json:"field_goals_attempted"`
	FieldGoalsMade         float64   `json:"field_goals_made"`
	ThreePointersAttempted float64   `json:"three_pointers_attempted"`
	ThreePointersMade      float64   `json:"three_pointers_made"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PlayerSeasonStats) TableName() string {
	return "player_season_stats"
}

// HasShootingSplit reports whether season-to-date shooting numbers are usable
func (p PlayerSeasonStats) HasShootingSplit() bool {
	return p.FieldGoalsAttempted > 0
}

// PlayerInjury is a row of the injury report
type PlayerInjury struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PlayerID   string    `gorm:"not null;uniqueIndex" json:"player_id"`
	Status     string    `json:"status"`
	Active     bool      `json:"active"`
	ReportedAt time.Time `json:"reported_at"`
}

// TableName specifies the table name for GORM
func (PlayerInjury) TableName() string {
	return "player_injuries"
}

// PlayerUsage stores a published usage rate for a player-season
type PlayerUsage struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	PlayerID  string  `gorm:"not null;uniqueIndex:idx_usage_player_season" json:"player_id"`
	Season    string  `gorm:"not null;uniqueIndex:idx_usage_player_season" json:"season"`
	UsageRate float64 `json:"usage_rate"`
}

// TableName specifies the table name for GORM
func (PlayerUsage) TableName() string {
	return "player_usage"
}

// Tables lists the game and reference tables for migrations
func Tables() []interface{} {
	return []interface{}{
		&GameRecord{},
		&TeamSeasonStats{},
		&PlayerSeasonStats{},
		&PlayerInjury{},
		&PlayerUsage{},
	}
}
