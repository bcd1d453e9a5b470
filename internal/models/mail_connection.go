package models

import "time"

// MailConnection is a user's link to their mailbox. The access token is
// stored sealed and never serialized.
type MailConnection struct {
	Base
	UserID         string     `gorm:"not null;uniqueIndex" json:"user_id"`
	Provider       string     `gorm:"not null;default:'gmail'" json:"provider"`
	EmailAddress   string     `json:"email_address"`
	EncryptedToken string     `gorm:"not null" json:"-"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
}

// Expired reports whether the token has a known expiry that has passed.
func (m *MailConnection) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !now.Before(*m.ExpiresAt)
}
