package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/predictor"
	"github.com/stitts-dev/prop-projector/internal/regression"
	"github.com/stitts-dev/prop-projector/internal/services"
	"github.com/stitts-dev/prop-projector/internal/store"
	"github.com/stitts-dev/prop-projector/pkg/utils"
)

// ModelManager trains and inspects regression models
type ModelManager interface {
	Train(ctx context.Context, req services.TrainRequest) (*models.RegressionModel, error)
	TrainAll(ctx context.Context, req services.TrainAllRequest) (*services.TrainAllReport, error)
	ListModels(ctx context.Context, filter store.ListFilter) ([]models.ModelSummary, error)
	GetModel(ctx context.Context, key models.ModelKey) (*models.RegressionModel, error)
	DeleteModel(ctx context.Context, key models.ModelKey) error
}

type ModelHandler struct {
	manager ModelManager
}

func NewModelHandler(manager ModelManager) *ModelHandler {
	return &ModelHandler{manager: manager}
}

// TrainModel fits and stores one model
func (h *ModelHandler) TrainModel(c *gin.Context) {
	var req services.TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	stat, err := models.ParseStatType(string(req.StatType))
	if err != nil {
		utils.SendValidationError(c, "Invalid stat type", err.Error())
		return
	}
	req.StatType = stat

	model, err := h.manager.Train(c.Request.Context(), req)
	if err != nil {
		sendModelError(c, err)
		return
	}
	utils.SendCreated(c, model)
}

// TrainAllModels runs a batch training over every eligible player
func (h *ModelHandler) TrainAllModels(c *gin.Context) {
	var req services.TrainAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	for i, s := range req.StatTypes {
		stat, err := models.ParseStatType(string(s))
		if err != nil {
			utils.SendValidationError(c, "Invalid stat type", err.Error())
			return
		}
		req.StatTypes[i] = stat
	}

	report, err := h.manager.TrainAll(c.Request.Context(), req)
	if err != nil {
		sendModelError(c, err)
		return
	}
	utils.SendSuccess(c, report)
}

// ListModels returns stored model summaries
func (h *ModelHandler) ListModels(c *gin.Context) {
	var filter store.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.SendValidationError(c, "Invalid query parameters", err.Error())
		return
	}
	if filter.StatType != "" {
		stat, err := models.ParseStatType(string(filter.StatType))
		if err != nil {
			utils.SendValidationError(c, "Invalid stat type", err.Error())
			return
		}
		filter.StatType = stat
	}

	list, err := h.manager.ListModels(c.Request.Context(), filter)
	if err != nil {
		sendModelError(c, err)
		return
	}
	utils.SendSuccessWithMeta(c, list, &utils.Meta{Total: int64(len(list))})
}

// GetModel returns one stored model with its coefficients
func (h *ModelHandler) GetModel(c *gin.Context) {
	key, ok := modelKeyParam(c)
	if !ok {
		return
	}
	model, err := h.manager.GetModel(c.Request.Context(), key)
	if err != nil {
		sendModelError(c, err)
		return
	}
	utils.SendSuccess(c, model)
}

// DeleteModel removes one stored model
func (h *ModelHandler) DeleteModel(c *gin.Context) {
	key, ok := modelKeyParam(c)
	if !ok {
		return
	}
	if err := h.manager.DeleteModel(c.Request.Context(), key); err != nil {
		sendModelError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": key.String()})
}

func modelKeyParam(c *gin.Context) (models.ModelKey, bool) {
	stat, err := models.ParseStatType(c.Param("stat"))
	if err != nil {
		utils.SendValidationError(c, "Invalid stat type", err.Error())
		return models.ModelKey{}, false
	}
	key := models.ModelKey{PlayerScope: c.Param("scope"), StatType: stat, Season: c.Param("season")}
	if err := key.Validate(); err != nil {
		utils.SendValidationError(c, "Invalid model key", err.Error())
		return models.ModelKey{}, false
	}
	return key, true
}

func sendModelError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, store.ErrModelNotFound):
		utils.SendError(c, http.StatusNotFound, utils.NewAppError(utils.ErrCodeModelNotFound, "Model not found", err.Error()))
	case errors.Is(err, regression.ErrInsufficientData):
		utils.SendUnprocessable(c, utils.ErrCodeInsufficientData, "Not enough games to train a model", err.Error())
	case errors.Is(err, regression.ErrNumericalInstability):
		utils.SendUnprocessable(c, utils.ErrCodeNumericalInstability, "Training data is numerically unstable", err.Error())
	case errors.Is(err, regression.ErrInvalidLambda):
		utils.SendValidationError(c, "Invalid ridge lambda", err.Error())
	case errors.Is(err, predictor.ErrSchemaMismatch):
		utils.SendUnprocessable(c, utils.ErrCodeSchemaMismatch, "Model uses a different feature schema", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.SendError(c, http.StatusServiceUnavailable, utils.NewAppError(utils.ErrCodeInternal, "Request cancelled"))
	default:
		utils.SendInternalError(c, "Model operation failed")
	}
}
