package services

import (
	"testing"
	"time"

	"spendsync/internal/secret"
	"spendsync/internal/testutil"
)

const testMailKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestSealer(t *testing.T) *secret.Sealer {
	t.Helper()
	sealer, err := secret.NewSealer(testMailKey)
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}
	return sealer
}

func TestMailConnection(t *testing.T) {
	t.Run("connect_and_read_token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMailConnectionService(db, newTestSealer(t))
		userID := testutil.NewUserID()

		conn, err := svc.Connect(userID, "me@example.com", "ya29.token", nil)
		testutil.AssertNoError(t, err)

		if conn.EncryptedToken == "" || conn.EncryptedToken == "ya29.token" {
			t.Errorf("expected sealed token, got %q", conn.EncryptedToken)
		}

		token, err := svc.AccessToken(userID)
		testutil.AssertNoError(t, err)
		if token != "ya29.token" {
			t.Errorf("expected token ya29.token, got %q", token)
		}
	})

	t.Run("reconnect_replaces_token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMailConnectionService(db, newTestSealer(t))
		userID := testutil.NewUserID()

		first, err := svc.Connect(userID, "me@example.com", "old", nil)
		testutil.AssertNoError(t, err)
		second, err := svc.Connect(userID, "me@example.com", "new", nil)
		testutil.AssertNoError(t, err)

		if first.ID != second.ID {
			t.Errorf("expected the same connection row, got %s and %s", first.ID, second.ID)
		}
		token, err := svc.AccessToken(userID)
		testutil.AssertNoError(t, err)
		if token != "new" {
			t.Errorf("expected token new, got %q", token)
		}
	})

	t.Run("not_connected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMailConnectionService(db, newTestSealer(t))

		_, err := svc.AccessToken(testutil.NewUserID())
		testutil.AssertAppError(t, err, "MAIL_NOT_CONNECTED")
	})

	t.Run("expired_token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMailConnectionService(db, newTestSealer(t))
		userID := testutil.NewUserID()

		expired := time.Now().Add(-time.Minute)
		_, err := svc.Connect(userID, "me@example.com", "token", &expired)
		testutil.AssertNoError(t, err)

		_, err = svc.AccessToken(userID)
		testutil.AssertAppError(t, err, "MAIL_NOT_CONNECTED")
	})

	t.Run("undecryptable_token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		userID := testutil.NewUserID()
		_, err := NewMailConnectionService(db, newTestSealer(t)).Connect(userID, "", "token", nil)
		testutil.AssertNoError(t, err)

		otherKey, err := secret.NewSealer("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
		testutil.AssertNoError(t, err)

		_, err = NewMailConnectionService(db, otherKey).AccessToken(userID)
		testutil.AssertAppError(t, err, "MAIL_NOT_CONNECTED")
	})

	t.Run("no_sealer", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMailConnectionService(db, nil)

		_, err := svc.Connect(testutil.NewUserID(), "me@example.com", "token", nil)
		testutil.AssertAppError(t, err, "MAIL_NOT_CONFIGURED")
	})

	t.Run("empty_token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMailConnectionService(db, newTestSealer(t))

		_, err := svc.Connect(testutil.NewUserID(), "me@example.com", "  ", nil)
		testutil.AssertAppError(t, err, "INVALID_MAIL_TOKEN")
	})

	t.Run("disconnect", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMailConnectionService(db, newTestSealer(t))
		userID := testutil.NewUserID()
		_, err := svc.Connect(userID, "me@example.com", "token", nil)
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.Disconnect(userID))

		_, err = svc.GetConnection(userID)
		testutil.AssertAppError(t, err, "MAIL_NOT_CONNECTED")
		testutil.AssertAppError(t, svc.Disconnect(userID), "MAIL_NOT_CONNECTED")
	})

	t.Run("mark_synced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMailConnectionService(db, newTestSealer(t))
		userID := testutil.NewUserID()
		_, err := svc.Connect(userID, "me@example.com", "token", nil)
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.MarkSynced(userID, testutil.BaseTime))

		conn, err := svc.GetConnection(userID)
		testutil.AssertNoError(t, err)
		if conn.LastSyncedAt == nil || !conn.LastSyncedAt.Equal(testutil.BaseTime) {
			t.Errorf("expected last synced at %v, got %v", testutil.BaseTime, conn.LastSyncedAt)
		}
	})
}
