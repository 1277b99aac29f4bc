package models

import (
	"time"
)

// GameRecord is one player-game box score observation
type GameRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PlayerID   string    `gorm:"not null;uniqueIndex:idx_player_game" json:"player_id"`
	PlayerName string    `gorm:"index" json:"player_name"`
	Season     string    `gorm:"not null;index" json:"season"`
	GameDate   time.Time `gorm:"not null;uniqueIndex:idx_player_game" json:"game_date"`
	Team       string    `gorm:"size:8" json:"team"`
	Opponent   string    `gorm:"size:8;not null" json:"opponent"`
	IsHome     bool      `json:"is_home"`
	Minutes    float64   `json:"minutes"`

	// Nil means the stat was not reported for this game
	Points   *int `json:"points,omitempty"`
	Rebounds *int `json:"rebounds,omitempty"`
	Assists  *int `json:"assists,omitempty"`

	Turnovers              int `json:"turnovers"`
	FieldGoalsAttempted    int `json:"field_goals_attempted"`
	FieldGoalsMade         int `json:"field_goals_made"`
	ThreePointersAttempted int `json:"three_pointers_attempted"`
	ThreePointersMade      int `json:"three_pointers_made"`
	FreeThrowsAttempted    int `json:"free_throws_attempted"`
	FreeThrowsMade         int `json:"free_throws_made"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (GameRecord) TableName() string {
	return "player_game_logs"
}

// PointsValue returns points as a float, zero when missing
func (g GameRecord) PointsValue() float64 {
	return derefStat(g.Points)
}

// ReboundsValue returns rebounds as a float, zero when missing
func (g GameRecord) ReboundsValue() float64 {
	return derefStat(g.Rebounds)
}

// AssistsValue returns assists as a float, zero when missing
func (g GameRecord) AssistsValue() float64 {
	return derefStat(g.Assists)
}

// TwoPointersAttempted is field goal attempts minus three point attempts
func (g GameRecord) TwoPointersAttempted() int {
	return g.FieldGoalsAttempted - g.ThreePointersAttempted
}

// TwoPointersMade is field goals made minus three pointers made
func (g GameRecord) TwoPointersMade() int {
	return g.FieldGoalsMade - g.ThreePointersMade
}

func derefStat(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}

// IntPtr is a convenience for building records with reported stats
func IntPtr(v int) *int {
	return &v
}

// GameContext describes the game being featurized. For historical games it mirrors the
// GameRecord; for upcoming games only the schedule fields are known.
type GameContext struct {
	PlayerID string    `json:"player_id"`
	Season   string    `json:"season"`
	GameDate time.Time `json:"game_date"`
	Team     string    `json:"team"`
	Opponent string    `json:"opponent"`
	IsHome   bool      `json:"is_home"`
}

// ContextOf builds the GameContext for a historical record
func ContextOf(g GameRecord) GameContext {
	return GameContext{
		PlayerID: g.PlayerID,
		Season:   g.Season,
		GameDate: g.GameDate,
		Team:     g.Team,
		Opponent: g.Opponent,
		IsHome:   g.IsHome,
	}
}
