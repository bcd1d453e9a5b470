package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/logger"
	"spendsync/internal/models"
	"spendsync/internal/pagination"
	"spendsync/internal/parser"
)

var (
	// ErrNotifierClosed is returned by Schedule after Stop.
	ErrNotifierClosed = errors.New("notifier is closed")
	// ErrNotifierBusy is returned by Schedule when the outbox buffer is full.
	ErrNotifierBusy = errors.New("notifier buffer is full")
)

// NotificationFor builds the push message announcing a new transaction.
func NotificationFor(userID string, tx models.Transaction) Notification {
	title := "Outgoing Transaction"
	if tx.Direction == parser.DirectionIncoming {
		title = "Incoming Transaction"
	}
	description := tx.Description
	if description == "" {
		description = "Transaction"
	}

	data := map[string]string{"transactionId": tx.ID}
	if tx.MessageID != nil {
		data["messageId"] = *tx.MessageID
	}

	return Notification{
		UserID:        userID,
		TransactionID: tx.ID,
		Title:         title,
		Body:          fmt.Sprintf("%s • %s %s", description, tx.Currency, tx.Amount.StringFixed(2)),
		Data:          data,
	}
}

// OutboxNotifier writes notifications to the outbox table from a pool of
// workers. Schedule never blocks the caller.
type OutboxNotifier struct {
	db      *gorm.DB
	queue   chan Notification
	workers int
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewOutboxNotifier creates a notifier with the given worker count and buffer size.
func NewOutboxNotifier(db *gorm.DB, workers, buffer int) *OutboxNotifier {
	if workers < 1 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &OutboxNotifier{
		db:      db,
		queue:   make(chan Notification, buffer),
		workers: workers,
	}
}

// Start launches the workers. Calling it again is a no-op.
func (n *OutboxNotifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started || n.closed {
		return
	}
	n.started = true

	for i := 0; i < n.workers; i++ {
		n.wg.Add(1)
		go n.worker()
	}
}

// Schedule queues a notification for delivery.
func (n *OutboxNotifier) Schedule(ctx context.Context, notification Notification) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return ErrNotifierClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case n.queue <- notification:
		return nil
	default:
		return ErrNotifierBusy
	}
}

// Stop closes the outbox and waits for queued notifications to be written
// or for ctx to end.
func (n *OutboxNotifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.queue)
	started := n.started
	n.mu.Unlock()

	if !started {
		for notification := range n.queue {
			n.write(notification)
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *OutboxNotifier) worker() {
	defer n.wg.Done()
	for notification := range n.queue {
		n.write(notification)
	}
}

func (n *OutboxNotifier) write(notification Notification) {
	var data string
	if len(notification.Data) > 0 {
		raw, err := json.Marshal(notification.Data)
		if err != nil {
			logger.Get().Errorw("failed to marshal notification data", "error", err, "user_id", notification.UserID)
		} else {
			data = string(raw)
		}
	}

	row := &models.Notification{
		UserID: notification.UserID,
		Title:  notification.Title,
		Body:   notification.Body,
		Data:   data,
		Status: models.NotificationPending,
	}
	if notification.TransactionID != "" {
		id := notification.TransactionID
		row.TransactionID = &id
	}

	if err := n.db.Create(row).Error; err != nil {
		logger.Get().Errorw("failed to write notification",
			"error", err,
			"user_id", notification.UserID,
			"transaction_id", notification.TransactionID,
		)
	}
}

// notificationService reads and acknowledges outbox rows.
type notificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db}
}

// ListNotifications lists a user's outbox rows, newest first.
func (s *notificationService) ListNotifications(userID string, status *models.NotificationStatus, page pagination.PageRequest) (*pagination.Page[models.Notification], error) {
	page.Defaults()

	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []models.Notification
	if err := base.Scopes(pagination.Scope(page)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPage(rows, page, total)
	return &result, nil
}

// MarkDelivered acknowledges an outbox row.
func (s *notificationService) MarkDelivered(userID, notificationID string) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("status", models.NotificationDelivered)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
