package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stitts-dev/prop-projector/internal/models"
)

// ModelRecord is the persisted row of a regression model
type ModelRecord struct {
	ID                   uint           `gorm:"primaryKey"`
	PlayerScope          string         `gorm:"size:64;not null;uniqueIndex:idx_model_key"`
	StatType             string         `gorm:"size:32;not null;uniqueIndex:idx_model_key"`
	Season               string         `gorm:"size:16;not null;uniqueIndex:idx_model_key"`
	Intercept            float64        `gorm:"not null"`
	Coefficients         datatypes.JSON `gorm:"not null"`
	FeatureNames         datatypes.JSON `gorm:"not null"`
	FeatureSchemaVersion string         `gorm:"size:32;not null"`
	RSquared             float64
	AdjustedRSquared     float64
	RMSE                 float64
	MAE                  float64
	StandardError        float64
	ResidualStdDev       float64
	TrainingDataSize     int
	Lambda               float64
	PenalizedIntercept   bool
	Solver               string `gorm:"size:8"`
	LastTrained          time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName specifies the table name for GORM
func (ModelRecord) TableName() string {
	return "regression_models"
}

func recordFromModel(m *models.RegressionModel) (*ModelRecord, error) {
	coefficients, err := json.Marshal(m.Coefficients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal coefficients: %w", err)
	}
	names, err := json.Marshal(m.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feature names: %w", err)
	}
	return &ModelRecord{
		PlayerScope:          m.PlayerScope,
		StatType:             string(m.StatType),
		Season:               m.Season,
		Intercept:            m.Intercept,
		Coefficients:         datatypes.JSON(coefficients),
		FeatureNames:         datatypes.JSON(names),
		FeatureSchemaVersion: m.FeatureSchemaVersion,
		RSquared:             m.Metrics.RSquared,
		AdjustedRSquared:     m.Metrics.AdjustedRSquared,
		RMSE:                 m.Metrics.RMSE,
		MAE:                  m.Metrics.MAE,
		StandardError:        m.Metrics.StandardError,
		ResidualStdDev:       m.ResidualStdDev,
		TrainingDataSize:     m.TrainingDataSize,
		Lambda:               m.Lambda,
		PenalizedIntercept:   m.PenalizedIntercept,
		Solver:               m.Solver,
		LastTrained:          m.LastTrained.UTC(),
	}, nil
}

func (r *ModelRecord) toModel() (*models.RegressionModel, error) {
	m := &models.RegressionModel{
		PlayerScope:          r.PlayerScope,
		StatType:             models.StatType(r.StatType),
		Season:               r.Season,
		Intercept:            r.Intercept,
		FeatureSchemaVersion: r.FeatureSchemaVersion,
		Metrics: models.ModelMetrics{
			RSquared:         r.RSquared,
			AdjustedRSquared: r.AdjustedRSquared,
			RMSE:             r.RMSE,
			MAE:              r.MAE,
			StandardError:    r.StandardError,
		},
		TrainingDataSize:   r.TrainingDataSize,
		LastTrained:        r.LastTrained.UTC(),
		ResidualStdDev:     r.ResidualStdDev,
		Lambda:             r.Lambda,
		PenalizedIntercept: r.PenalizedIntercept,
		Solver:             r.Solver,
	}
	if err := json.Unmarshal(r.Coefficients, &m.Coefficients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coefficients for %s: %w", m.Key(), err)
	}
	if err := json.Unmarshal(r.FeatureNames, &m.FeatureNames); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feature names for %s: %w", m.Key(), err)
	}
	return m, nil
}

// GormStore persists models in the regression_models table
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates the regression_models table
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&ModelRecord{})
}

func (s *GormStore) Save(ctx context.Context, model *models.RegressionModel) error {
	if err := model.Key().Validate(); err != nil {
		return err
	}
	record, err := recordFromModel(model)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_scope"}, {Name: "stat_type"}, {Name: "season"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"intercept", "coefficients", "feature_names", "feature_schema_version",
			"r_squared", "adjusted_r_squared", "rmse", "mae", "standard_error",
			"residual_std_dev", "training_data_size", "lambda", "penalized_intercept",
			"solver", "last_trained", "updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to save model %s: %w", model.Key(), err)
	}
	return nil
}

func (s *GormStore) Load(ctx context.Context, key models.ModelKey) (*models.RegressionModel, bool, error) {
	var record ModelRecord
	err := s.keyScope(s.db.WithContext(ctx), key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load model %s: %w", key, err)
	}

	model, err := record.toModel()
	if err != nil {
		return nil, false, err
	}
	return model, true, nil
}

func (s *GormStore) Exists(ctx context.Context, key models.ModelKey) (bool, error) {
	var count int64
	err := s.keyScope(s.db.WithContext(ctx).Model(&ModelRecord{}), key).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check model %s: %w", key, err)
	}
	return count > 0, nil
}

func (s *GormStore) List(ctx context.Context, filter ListFilter) ([]models.ModelSummary, error) {
	query := s.db.WithContext(ctx).Model(&ModelRecord{}).
		Select("player_scope", "stat_type", "season", "feature_schema_version",
			"r_squared", "rmse", "training_data_size", "last_trained")
	if filter.PlayerScope != "" {
		query = query.Where("player_scope = ?", filter.PlayerScope)
	}
	if filter.StatType != "" {
		query = query.Where("stat_type = ?", string(filter.StatType))
	}
	if filter.Season != "" {
		query = query.Where("season = ?", filter.Season)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []ModelRecord
	if err := query.Order("player_scope, stat_type, season").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	out := make([]models.ModelSummary, 0, len(records))
	for _, r := range records {
		out = append(out, models.ModelSummary{
			ModelKey: models.ModelKey{
				PlayerScope: r.PlayerScope,
				StatType:    models.StatType(r.StatType),
				Season:      r.Season,
			},
			FeatureSchemaVersion: r.FeatureSchemaVersion,
			RSquared:             r.RSquared,
			RMSE:                 r.RMSE,
			TrainingDataSize:     r.TrainingDataSize,
			LastTrained:          r.LastTrained.UTC(),
		})
	}
	return out, nil
}

func (s *GormStore) Delete(ctx context.Context, key models.ModelKey) error {
	err := s.keyScope(s.db.WithContext(ctx), key).Delete(&ModelRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete model %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) keyScope(db *gorm.DB, key models.ModelKey) *gorm.DB {
	return db.Where("player_scope = ? AND stat_type = ? AND season = ?",
		key.PlayerScope, string(key.StatType), key.Season)
}
