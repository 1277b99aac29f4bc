package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/pkg/utils"
)

// Projector produces ensemble projections
type Projector interface {
	Project(ctx context.Context, req models.ProjectionRequest, heuristic models.HeuristicProjection) models.ProjectionResult
}

type ProjectionHandler struct {
	projector Projector
}

func NewProjectionHandler(projector Projector) *ProjectionHandler {
	return &ProjectionHandler{projector: projector}
}

type projectionBody struct {
	PlayerID   string   `json:"player_id" binding:"required"`
	PlayerName string   `json:"player_name"`
	StatType   string   `json:"stat_type" binding:"required"`
	Team       string   `json:"team"`
	Opponent   string   `json:"opponent" binding:"required"`
	IsHome     bool     `json:"is_home"`
	Season     string   `json:"season"`
	GameDate   string   `json:"game_date"`
	MarketLine *float64 `json:"market_line"`

	Heuristic struct {
		ProjectedValue  float64            `json:"projected_value" binding:"min=0"`
		ConfidenceScore float64            `json:"confidence_score" binding:"min=0,max=1"`
		RiskLevel       models.RiskLevel   `json:"risk_level"`
		Edge            float64            `json:"edge"`
		Recommendation  string             `json:"recommendation"`
		Factors         map[string]float64 `json:"factors"`
	} `json:"heuristic"`
}

// CreateProjection blends the caller's heuristic projection with the regression model
func (h *ProjectionHandler) CreateProjection(c *gin.Context) {
	var body projectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	stat, err := models.ParseStatType(body.StatType)
	if err != nil {
		utils.SendValidationError(c, "Invalid stat type", err.Error())
		return
	}

	var gameDate time.Time
	if body.GameDate != "" {
		gameDate, err = time.Parse("2006-01-02", body.GameDate)
		if err != nil {
			utils.SendValidationError(c, "Invalid game_date, expected YYYY-MM-DD", err.Error())
			return
		}
	}

	req := models.ProjectionRequest{
		PlayerID:   body.PlayerID,
		PlayerName: body.PlayerName,
		StatType:   stat,
		Team:       body.Team,
		Opponent:   body.Opponent,
		IsHome:     body.IsHome,
		Season:     body.Season,
		GameDate:   gameDate,
		MarketLine: body.MarketLine,
	}
	heuristic := models.HeuristicProjection{
		ProjectedValue:  body.Heuristic.ProjectedValue,
		ConfidenceScore: body.Heuristic.ConfidenceScore,
		RiskLevel:       body.Heuristic.RiskLevel,
		Edge:            body.Heuristic.Edge,
		Recommendation:  models.Recommendation(body.Heuristic.Recommendation),
		Factors:         body.Heuristic.Factors,
	}
	if heuristic.RiskLevel == "" {
		heuristic.RiskLevel = models.RiskMedium
	}
	if heuristic.Recommendation == "" {
		heuristic.Recommendation = models.RecommendPass
	}

	utils.SendSuccess(c, h.projector.Project(c.Request.Context(), req, heuristic))
}
