package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/models"
	"spendsync/internal/services"
)

// --- mock settings service ---

type mockSettingsService struct {
	getSettingsFn    func(userID string) (*models.UserSettings, error)
	updateSettingsFn func(userID string, update services.SettingsUpdate) (*models.UserSettings, error)
}

func (m *mockSettingsService) GetSettings(userID string) (*models.UserSettings, error) {
	if m.getSettingsFn != nil {
		return m.getSettingsFn(userID)
	}
	return &models.UserSettings{UserID: userID}, nil
}

func (m *mockSettingsService) UpdateSettings(userID string, update services.SettingsUpdate) (*models.UserSettings, error) {
	if m.updateSettingsFn != nil {
		return m.updateSettingsFn(userID, update)
	}
	return &models.UserSettings{UserID: userID}, nil
}

var _ services.SettingsServicer = (*mockSettingsService)(nil)

func setupSettingsRouter(handler *SettingsHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/settings", handler.GetSettings)
	auth.PUT("/settings", handler.UpdateSettings)
	return r
}

func TestSettingsHandler_GetSettings(t *testing.T) {
	r := setupSettingsRouter(NewSettingsHandler(&mockSettingsService{}))

	rec := doRequest(r, http.MethodGet, "/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	settings := parseJSON(t, rec)["settings"].(map[string]interface{})
	if settings["notifications_enabled"] != false {
		t.Errorf("expected notifications off, got %v", settings["notifications_enabled"])
	}
}

func TestSettingsHandler_UpdateSettings(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		var got services.SettingsUpdate
		svc := &mockSettingsService{
			updateSettingsFn: func(userID string, update services.SettingsUpdate) (*models.UserSettings, error) {
				got = update
				return &models.UserSettings{UserID: userID, NotificationsEnabled: true}, nil
			},
		}
		r := setupSettingsRouter(NewSettingsHandler(svc))

		rec := doRequest(r, http.MethodPut, "/settings", `{"notifications_enabled":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.NotificationsEnabled == nil || !*got.NotificationsEnabled {
			t.Error("expected notifications_enabled true")
		}
		if got.TransactionEmail != nil {
			t.Error("expected transaction_email to be left unset")
		}
	})

	t.Run("invalid email from service", func(t *testing.T) {
		svc := &mockSettingsService{
			updateSettingsFn: func(string, services.SettingsUpdate) (*models.UserSettings, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid transaction email")
			},
		}
		r := setupSettingsRouter(NewSettingsHandler(svc))

		rec := doRequest(r, http.MethodPut, "/settings", `{"transaction_email":"nope"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
