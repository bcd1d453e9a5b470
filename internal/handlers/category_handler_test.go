package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/models"
	"spendsync/internal/services"
)

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn    func(userID, name, color string, monthlyBudget decimal.Decimal) (*models.Category, error)
	getUserCategoriesFn func(userID string) ([]models.Category, error)
	getCategoryByIDFn   func(userID, categoryID string) (*models.Category, error)
	updateCategoryFn    func(userID, categoryID string, name, color *string, monthlyBudget *decimal.Decimal) (*models.Category, error)
	deleteCategoryFn    func(userID, categoryID string) error
}

func (m *mockCategoryService) CreateCategory(userID, name, color string, monthlyBudget decimal.Decimal) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, name, color, monthlyBudget)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetUserCategories(userID string) ([]models.Category, error) {
	if m.getUserCategoriesFn != nil {
		return m.getUserCategoriesFn(userID)
	}
	return []models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(userID, categoryID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) UpdateCategory(userID, categoryID string, name, color *string, monthlyBudget *decimal.Decimal) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(userID, categoryID, name, color, monthlyBudget)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) DeleteCategory(userID, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(userID, categoryID)
	}
	return nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/categories", handler.CreateCategory)
	auth.GET("/categories", handler.GetUserCategories)
	auth.GET("/categories/:id", handler.GetCategoryByID)
	auth.PUT("/categories/:id", handler.UpdateCategory)
	auth.DELETE("/categories/:id", handler.DeleteCategory)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("creates with budget", func(t *testing.T) {
		var gotBudget decimal.Decimal
		svc := &mockCategoryService{
			createCategoryFn: func(userID, name, color string, budget decimal.Decimal) (*models.Category, error) {
				gotBudget = budget
				return &models.Category{Base: models.Base{ID: testCategoryID}, UserID: userID, Name: name, Color: color, MonthlyBudget: budget}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc))

		rec := doRequest(r, http.MethodPost, "/categories", `{"name":"Food","color":"#FF8800","monthly_budget":"300.50"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotBudget.Equal(decimal.RequireFromString("300.50")) {
			t.Errorf("expected budget 300.50, got %s", gotBudget)
		}
		category := parseJSON(t, rec)["category"].(map[string]interface{})
		if category["name"] != "Food" {
			t.Errorf("expected name Food, got %v", category["name"])
		}
	})

	t.Run("defaults budget to zero", func(t *testing.T) {
		gotBudget := decimal.NewFromInt(-1)
		svc := &mockCategoryService{
			createCategoryFn: func(_, _, _ string, budget decimal.Decimal) (*models.Category, error) {
				gotBudget = budget
				return &models.Category{}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc))

		rec := doRequest(r, http.MethodPost, "/categories", `{"name":"Transport"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if !gotBudget.IsZero() {
			t.Errorf("expected zero budget, got %s", gotBudget)
		}
	})

	t.Run("rejects missing name", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}))

		rec := doRequest(r, http.MethodPost, "/categories", `{"color":"#FF8800"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("rejects bad color", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}))

		rec := doRequest(r, http.MethodPost, "/categories", `{"name":"Food","color":"orange"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		svc := &mockCategoryService{
			createCategoryFn: func(string, string, string, decimal.Decimal) (*models.Category, error) {
				return nil, apperrors.ErrDuplicateCategory
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc))

		rec := doRequest(r, http.MethodPost, "/categories", `{"name":"Food"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_CATEGORY")
	})
}

func TestCategoryHandler_GetUserCategories(t *testing.T) {
	svc := &mockCategoryService{
		getUserCategoriesFn: func(userID string) ([]models.Category, error) {
			return []models.Category{{UserID: userID, Name: "Food"}, {UserID: userID, Name: "Rent"}}, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(svc))

	rec := doRequest(r, http.MethodGet, "/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if n := len(parseJSON(t, rec)["categories"].([]interface{})); n != 2 {
		t.Errorf("expected 2 categories, got %d", n)
	}
}

func TestCategoryHandler_GetCategoryByID(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}))

		rec := doRequest(r, http.MethodGet, "/categories/abc", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockCategoryService{
			getCategoryByIDFn: func(string, string) (*models.Category, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc))

		rec := doRequest(r, http.MethodGet, "/categories/"+testCategoryID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
	})
}

func TestCategoryHandler_UpdateCategory(t *testing.T) {
	t.Run("passes only provided fields", func(t *testing.T) {
		var gotName, gotColor *string
		var gotBudget *decimal.Decimal
		svc := &mockCategoryService{
			updateCategoryFn: func(_, categoryID string, name, color *string, budget *decimal.Decimal) (*models.Category, error) {
				if categoryID != testCategoryID {
					t.Errorf("expected category %s, got %s", testCategoryID, categoryID)
				}
				gotName, gotColor, gotBudget = name, color, budget
				return &models.Category{}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc))

		rec := doRequest(r, http.MethodPut, "/categories/"+testCategoryID, `{"monthly_budget":"120"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotName != nil || gotColor != nil {
			t.Error("expected name and color to be nil")
		}
		if gotBudget == nil || !gotBudget.Equal(decimal.NewFromInt(120)) {
			t.Errorf("expected budget 120, got %v", gotBudget)
		}
	})

	t.Run("service error", func(t *testing.T) {
		svc := &mockCategoryService{
			updateCategoryFn: func(string, string, *string, *string, *decimal.Decimal) (*models.Category, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly budget must not be negative")
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc))

		rec := doRequest(r, http.MethodPut, "/categories/"+testCategoryID, `{"monthly_budget":"-1"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		called := false
		svc := &mockCategoryService{
			deleteCategoryFn: func(userID, categoryID string) error {
				called = userID == testUserID && categoryID == testCategoryID
				return nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc))

		rec := doRequest(r, http.MethodDelete, "/categories/"+testCategoryID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called {
			t.Error("expected DeleteCategory to be called with user and category")
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockCategoryService{
			deleteCategoryFn: func(string, string) error { return apperrors.ErrCategoryNotFound },
		}
		r := setupCategoryRouter(NewCategoryHandler(svc))

		rec := doRequest(r, http.MethodDelete, "/categories/"+testCategoryID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
