package testutil_test

import (
	"testing"

	"spendsync/internal/errors"
	"spendsync/internal/parser"
	"spendsync/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var count int64
	for _, table := range []string{"categories", "transactions", "mail_connections", "user_settings", "notifications", "sync_runs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsIsolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	second := testutil.SetupTestDB(t)

	userID := testutil.NewUserID()
	testutil.CreateTestCategory(t, first, userID, "100")

	var count int64
	second.Table("categories").Count(&count)
	if count != 0 {
		t.Errorf("expected isolated database, found %d categories", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := testutil.NewUserID()

	category := testutil.CreateTestCategory(t, db, userID, "250.50")
	if category.ID == "" {
		t.Fatal("category should have an id")
	}
	if category.MonthlyBudget.String() != "250.5" {
		t.Errorf("expected budget 250.5, got %s", category.MonthlyBudget)
	}

	tx := testutil.CreateTestTransaction(t, db, userID, parser.DirectionOutgoing, "12.34", testutil.BaseTime)
	if tx.MessageID == nil || *tx.MessageID == "" {
		t.Error("fixture transaction should have a message id")
	}

	email := testutil.POSBEmail("m1", "50.00", "John Tan")
	res := parser.DefaultRegistry().Dispatch(email)
	if !res.OK() || res.Transaction.ToAccount != "John Tan" {
		t.Errorf("POSB fixture should parse, got %+v", res)
	}

	email = testutil.UOBEmail("m2", "8.90", "Kopitiam")
	res = parser.DefaultRegistry().Dispatch(email)
	if !res.OK() || res.Transaction.ToAccount != "Kopitiam" {
		t.Errorf("UOB fixture should parse, got %+v", res)
	}
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.Wrap(errors.ErrMailNotConnected, nil), "MAIL_NOT_CONNECTED")
	testutil.AssertNoError(t, nil)
}
