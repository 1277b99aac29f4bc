package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stitts-dev/prop-projector/internal/features"
	"github.com/stitts-dev/prop-projector/internal/models"
)

// GameLogRepository reads the box-score history and reference tables
type GameLogRepository interface {
	PlayerHistory(ctx context.Context, playerID string, seasons []string) ([]models.GameRecord, error)
	PlayersWithHistory(ctx context.Context, seasons []string, minGames int) ([]string, error)
	ReferenceData(ctx context.Context, seasons []string) (*features.ReferenceData, error)
}

// GormGameLogRepository implements GameLogRepository on the shared database
type GormGameLogRepository struct {
	db *gorm.DB
}

func NewGameLogRepository(db *gorm.DB) *GormGameLogRepository {
	return &GormGameLogRepository{db: db}
}

// PlayerHistory returns a player's games in the given seasons, oldest first.
// An empty season list returns every season.
func (r *GormGameLogRepository) PlayerHistory(ctx context.Context, playerID string, seasons []string) ([]models.GameRecord, error) {
	var games []models.GameRecord
	query := r.db.WithContext(ctx).Where("player_id = ?", playerID)
	if len(seasons) > 0 {
		query = query.Where("season IN ?", seasons)
	}
	if err := query.Order("game_date ASC").Find(&games).Error; err != nil {
		return nil, fmt.Errorf("failed to load game logs for %s: %w", playerID, err)
	}
	return games, nil
}

// PlayersWithHistory lists players with more than minGames games in the seasons
func (r *GormGameLogRepository) PlayersWithHistory(ctx context.Context, seasons []string, minGames int) ([]string, error) {
	var ids []string
	query := r.db.WithContext(ctx).Model(&models.GameRecord{})
	if len(seasons) > 0 {
		query = query.Where("season IN ?", seasons)
	}
	err := query.Group("player_id").
		Having("COUNT(*) > ?", minGames).
		Order("player_id").
		Pluck("player_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return ids, nil
}

// ReferenceData loads team, player, injury and usage rows for the seasons
func (r *GormGameLogRepository) ReferenceData(ctx context.Context, seasons []string) (*features.ReferenceData, error) {
	db := r.db.WithContext(ctx)
	bySeason := func(q *gorm.DB) *gorm.DB {
		if len(seasons) > 0 {
			return q.Where("season IN ?", seasons)
		}
		return q
	}

	var teams []models.TeamSeasonStats
	if err := bySeason(db.Model(&models.TeamSeasonStats{})).Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("failed to load team stats: %w", err)
	}
	var players []models.PlayerSeasonStats
	if err := bySeason(db.Model(&models.PlayerSeasonStats{})).Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to load player season stats: %w", err)
	}
	var usage []models.PlayerUsage
	if err := bySeason(db.Model(&models.PlayerUsage{})).Find(&usage).Error; err != nil {
		return nil, fmt.Errorf("failed to load usage rates: %w", err)
	}
	var injuries []models.PlayerInjury
	if err := db.Where("active = ?", true).Find(&injuries).Error; err != nil {
		return nil, fmt.Errorf("failed to load injury report: %w", err)
	}

	return features.NewReferenceData(teams, players, injuries, usage), nil
}

// SaveGames upserts box scores by (player_id, game_date)
func (r *GormGameLogRepository) SaveGames(ctx context.Context, games []models.GameRecord) error {
	if len(games) == 0 {
		return nil
	}
	rows := make([]models.GameRecord, len(games))
	for i, g := range games {
		// rows are matched on the natural key, not the surrogate id
		g.ID = 0
		rows[i] = g
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "game_date"}},
		DoUpdates: clause.AssignmentColumns(gameUpdateColumns),
	}).CreateInBatches(rows, 500).Error
	if err != nil {
		return fmt.Errorf("failed to save game logs: %w", err)
	}
	return nil
}

var gameUpdateColumns = []string{
	"player_name", "season", "team", "opponent", "is_home", "minutes",
	"points", "rebounds", "assists", "turnovers",
	"field_goals_attempted", "field_goals_made",
	"three_pointers_attempted", "three_pointers_made",
	"free_throws_attempted", "free_throws_made",
}
