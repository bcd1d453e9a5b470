package models

// NotificationStatus tracks an outbox row.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationDelivered NotificationStatus = "delivered"
)

// Notification is an outbox row read by the push delivery service.
type Notification struct {
	Base
	UserID        string             `gorm:"not null;index" json:"user_id"`
	TransactionID *string            `gorm:"type:uuid" json:"transaction_id,omitempty"`
	Title         string             `gorm:"not null" json:"title"`
	Body          string             `gorm:"not null" json:"body"`
	Data          string             `json:"data"`
	Status        NotificationStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`
}
