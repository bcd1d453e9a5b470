package models

// UserSettings holds per-user preferences. A user without a row gets the
// zero value: notifications off and no transaction address filter.
type UserSettings struct {
	Base
	UserID               string `gorm:"not null;uniqueIndex" json:"user_id"`
	NotificationsEnabled bool   `gorm:"not null;default:false" json:"notifications_enabled"`
	TransactionEmail     string `json:"transaction_email"`
}
