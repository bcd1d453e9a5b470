package services

import (
	"testing"

	"spendsync/internal/testutil"
)

func boolPtr(b bool) *bool { return &b }

func TestGetSettings(t *testing.T) {
	t.Run("defaults_without_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSettingsService(db)
		userID := testutil.NewUserID()

		settings, err := svc.GetSettings(userID)
		testutil.AssertNoError(t, err)

		if settings.UserID != userID {
			t.Errorf("expected user %s, got %s", userID, settings.UserID)
		}
		if settings.NotificationsEnabled {
			t.Error("expected notifications to be off by default")
		}
		if settings.TransactionEmail != "" {
			t.Errorf("expected no transaction email, got %q", settings.TransactionEmail)
		}
	})

	t.Run("stored_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSettingsService(db)
		userID := testutil.NewUserID()
		testutil.CreateTestSettings(t, db, userID, true, "me@example.com")

		settings, err := svc.GetSettings(userID)
		testutil.AssertNoError(t, err)

		if !settings.NotificationsEnabled || settings.TransactionEmail != "me@example.com" {
			t.Errorf("unexpected settings %+v", settings)
		}
	})
}

func TestUpdateSettings(t *testing.T) {
	t.Run("creates_then_updates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSettingsService(db)
		userID := testutil.NewUserID()

		created, err := svc.UpdateSettings(userID, SettingsUpdate{
			NotificationsEnabled: boolPtr(true),
			TransactionEmail:     strPtr(" me@example.com "),
		})
		testutil.AssertNoError(t, err)
		if created.ID == "" {
			t.Fatal("expected settings row to be created")
		}
		if created.TransactionEmail != "me@example.com" {
			t.Errorf("expected trimmed email, got %q", created.TransactionEmail)
		}

		updated, err := svc.UpdateSettings(userID, SettingsUpdate{NotificationsEnabled: boolPtr(false)})
		testutil.AssertNoError(t, err)

		if updated.ID != created.ID {
			t.Errorf("expected the same row, got %s and %s", created.ID, updated.ID)
		}
		if updated.NotificationsEnabled {
			t.Error("expected notifications to be turned off")
		}
		if updated.TransactionEmail != "me@example.com" {
			t.Errorf("expected email to be kept, got %q", updated.TransactionEmail)
		}
	})

	t.Run("clear_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSettingsService(db)
		userID := testutil.NewUserID()
		testutil.CreateTestSettings(t, db, userID, true, "me@example.com")

		settings, err := svc.UpdateSettings(userID, SettingsUpdate{TransactionEmail: strPtr("")})
		testutil.AssertNoError(t, err)
		if settings.TransactionEmail != "" {
			t.Errorf("expected email to be cleared, got %q", settings.TransactionEmail)
		}
	})

	t.Run("invalid_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSettingsService(db)

		_, err := svc.UpdateSettings(testutil.NewUserID(), SettingsUpdate{TransactionEmail: strPtr("not-an-address")})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
