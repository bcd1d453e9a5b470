package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/logger"
	"spendsync/internal/models"
	"spendsync/internal/secret"
)

// mailConnectionService stores sealed mailbox credentials.
type mailConnectionService struct {
	db     *gorm.DB
	sealer *secret.Sealer
	now    func() time.Time
}

// NewMailConnectionService creates a new MailConnectionServicer. A nil sealer
// disables connecting mailboxes.
func NewMailConnectionService(db *gorm.DB, sealer *secret.Sealer) MailConnectionServicer {
	return &mailConnectionService{db: db, sealer: sealer, now: time.Now}
}

// Connect stores or replaces the user's mailbox token.
func (s *mailConnectionService) Connect(userID, emailAddress, accessToken string, expiresAt *time.Time) (*models.MailConnection, error) {
	if s.sealer == nil {
		return nil, apperrors.ErrMailNotConfigured
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, apperrors.ErrInvalidMailToken
	}

	sealed, err := s.sealer.Seal(accessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var conn models.MailConnection
	err = s.db.Where("user_id = ?", userID).First(&conn).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		conn = models.MailConnection{UserID: userID, Provider: "gmail"}
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	conn.EmailAddress = strings.TrimSpace(emailAddress)
	conn.EncryptedToken = sealed
	conn.ExpiresAt = expiresAt

	if err := s.db.Save(&conn).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &conn, nil
}

// GetConnection returns the user's mailbox connection.
func (s *mailConnectionService) GetConnection(userID string) (*models.MailConnection, error) {
	var conn models.MailConnection
	if err := s.db.Where("user_id = ?", userID).First(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMailNotConnected
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &conn, nil
}

// Disconnect removes the stored token.
func (s *mailConnectionService) Disconnect(userID string) error {
	result := s.db.Where("user_id = ?", userID).Delete(&models.MailConnection{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrMailNotConnected
	}
	return nil
}

// AccessToken returns a usable token for the user's mailbox, or
// ErrMailNotConnected when there is none.
func (s *mailConnectionService) AccessToken(userID string) (string, error) {
	conn, err := s.GetConnection(userID)
	if err != nil {
		return "", err
	}
	if conn.Expired(s.now()) {
		return "", apperrors.WithMessage(apperrors.ErrMailNotConnected, "mail access token has expired")
	}
	if s.sealer == nil {
		return "", apperrors.ErrMailNotConnected
	}

	token, err := s.sealer.Open(conn.EncryptedToken)
	if err != nil {
		logger.Get().Warnw("failed to open stored mail token", "user_id", userID, "error", err)
		return "", apperrors.ErrMailNotConnected
	}
	return token, nil
}

// MarkSynced records the time of the user's last successful sync.
func (s *mailConnectionService) MarkSynced(userID string, at time.Time) error {
	if err := s.db.Model(&models.MailConnection{}).
		Where("user_id = ?", userID).
		Update("last_synced_at", at.UTC()).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
