package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"spendsync/internal/models"
	"spendsync/internal/pagination"
	"spendsync/internal/parser"
	"spendsync/internal/testutil"
)

func TestNotificationFor(t *testing.T) {
	messageID := "18c2f"
	tx := models.Transaction{
		Base:        models.Base{ID: "tx-1"},
		MessageID:   &messageID,
		Direction:   parser.DirectionOutgoing,
		Amount:      decimal.RequireFromString("50"),
		Currency:    "SGD",
		Description: "Transfer to John Tan",
	}

	n := NotificationFor("user-1", tx)

	if n.Title != "Outgoing Transaction" {
		t.Errorf("expected outgoing title, got %q", n.Title)
	}
	if n.Body != "Transfer to John Tan • SGD 50.00" {
		t.Errorf("unexpected body %q", n.Body)
	}
	if n.Data["transactionId"] != "tx-1" || n.Data["messageId"] != "18c2f" {
		t.Errorf("unexpected data %v", n.Data)
	}

	tx.Direction = parser.DirectionIncoming
	tx.Description = ""
	n = NotificationFor("user-1", tx)
	if n.Title != "Incoming Transaction" {
		t.Errorf("expected incoming title, got %q", n.Title)
	}
	if n.Body != "Transaction • SGD 50.00" {
		t.Errorf("unexpected body %q", n.Body)
	}
}

func TestOutboxNotifier(t *testing.T) {
	t.Run("writes_scheduled_notifications", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := NewOutboxNotifier(db, 2, 10)
		notifier.Start()
		userID := testutil.NewUserID()

		for i := 0; i < 3; i++ {
			err := notifier.Schedule(context.Background(), Notification{
				UserID:        userID,
				TransactionID: "",
				Title:         "Outgoing Transaction",
				Body:          "Lunch • SGD 10.00",
				Data:          map[string]string{"messageId": "m"},
			})
			testutil.AssertNoError(t, err)
		}
		testutil.AssertNoError(t, notifier.Stop(context.Background()))

		var rows []models.Notification
		if err := db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
			t.Fatalf("failed to load notifications: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected 3 notifications, got %d", len(rows))
		}
		var data map[string]string
		if err := json.Unmarshal([]byte(rows[0].Data), &data); err != nil {
			t.Fatalf("expected JSON data, got %q", rows[0].Data)
		}
		if data["messageId"] != "m" {
			t.Errorf("unexpected data %v", data)
		}
		if rows[0].Status != models.NotificationPending {
			t.Errorf("expected pending status, got %s", rows[0].Status)
		}
	})

	t.Run("full_buffer", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := NewOutboxNotifier(db, 1, 1)

		testutil.AssertNoError(t, notifier.Schedule(context.Background(), Notification{UserID: "u", Title: "a", Body: "a"}))
		err := notifier.Schedule(context.Background(), Notification{UserID: "u", Title: "b", Body: "b"})
		if !errors.Is(err, ErrNotifierBusy) {
			t.Errorf("expected ErrNotifierBusy, got %v", err)
		}

		// Stop without Start still drains the buffer.
		testutil.AssertNoError(t, notifier.Stop(context.Background()))
		var count int64
		db.Model(&models.Notification{}).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 notification, got %d", count)
		}
	})

	t.Run("closed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := NewOutboxNotifier(db, 1, 1)
		notifier.Start()
		testutil.AssertNoError(t, notifier.Stop(context.Background()))
		testutil.AssertNoError(t, notifier.Stop(context.Background()))

		err := notifier.Schedule(context.Background(), Notification{UserID: "u"})
		if !errors.Is(err, ErrNotifierClosed) {
			t.Errorf("expected ErrNotifierClosed, got %v", err)
		}
	})

	t.Run("cancelled_context", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		notifier := NewOutboxNotifier(db, 1, 1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := notifier.Schedule(ctx, Notification{UserID: "u"}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestNotificationService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewNotificationService(db)
	userID := testutil.NewUserID()

	for _, title := range []string{"first", "second"} {
		row := &models.Notification{UserID: userID, Title: title, Body: "b", Status: models.NotificationPending}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("failed to create notification: %v", err)
		}
	}
	other := &models.Notification{UserID: testutil.NewUserID(), Title: "other", Body: "b", Status: models.NotificationPending}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("failed to create notification: %v", err)
	}

	page, err := svc.ListNotifications(userID, nil, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 2 {
		t.Fatalf("expected 2 notifications, got %d", page.TotalItems)
	}

	testutil.AssertNoError(t, svc.MarkDelivered(userID, page.Data[0].ID))
	testutil.AssertAppError(t, svc.MarkDelivered(userID, other.ID), "NOT_FOUND")

	pending := models.NotificationPending
	page, err = svc.ListNotifications(userID, &pending, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 1 {
		t.Errorf("expected 1 pending notification, got %d", page.TotalItems)
	}
}
