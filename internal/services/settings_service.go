package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/models"
)

// settingsService manages per-user preferences.
type settingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a new SettingsServicer.
func NewSettingsService(db *gorm.DB) SettingsServicer {
	return &settingsService{db: db}
}

// GetSettings returns the user's settings, or the defaults when none are stored.
func (s *settingsService) GetSettings(userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserSettings{UserID: userID}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &settings, nil
}

// UpdateSettings applies update and stores the result, creating the row on
// first use.
func (s *settingsService) UpdateSettings(userID string, update SettingsUpdate) (*models.UserSettings, error) {
	settings, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	if update.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *update.NotificationsEnabled
	}
	if update.TransactionEmail != nil {
		email := strings.TrimSpace(*update.TransactionEmail)
		if email != "" && !strings.Contains(email, "@") {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction email must be an email address")
		}
		settings.TransactionEmail = email
	}

	if settings.ID == "" {
		err = s.db.Create(settings).Error
	} else {
		err = s.db.Model(settings).Select("notifications_enabled", "transaction_email").Updates(settings).Error
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetSettings(userID)
}
