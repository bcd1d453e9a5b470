package services

import (
	"gorm.io/gorm"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/logger"
	"spendsync/internal/models"
)

const (
	defaultSyncRunLimit = 20
	maxSyncRunLimit     = 100
)

// syncRunService records sync history.
type syncRunService struct {
	db *gorm.DB
}

// NewSyncRunService creates a new SyncRunServicer.
func NewSyncRunService(db *gorm.DB) SyncRunServicer {
	return &syncRunService{db: db}
}

// Record stores a sync run. Errors are logged but never propagate.
func (s *syncRunService) Record(run *models.SyncRun) {
	if err := s.db.Create(run).Error; err != nil {
		logger.Get().Errorw("failed to record sync run",
			"error", err,
			"user_id", run.UserID,
			"trigger", run.Trigger,
			"status", run.Status,
		)
	}
}

// ListRuns returns the user's most recent sync runs.
func (s *syncRunService) ListRuns(userID string, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = defaultSyncRunLimit
	}
	if limit > maxSyncRunLimit {
		limit = maxSyncRunLimit
	}

	runs := []models.SyncRun{}
	if err := s.db.Where("user_id = ?", userID).
		Order("started_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return runs, nil
}
