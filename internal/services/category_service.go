package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID, name, color string, monthlyBudget decimal.Decimal) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if monthlyBudget.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly budget cannot be negative")
	}

	if err := s.checkNameFree(userID, name, ""); err != nil {
		return nil, err
	}

	category := &models.Category{
		UserID:        userID,
		Name:          name,
		Color:         color,
		MonthlyBudget: monthlyBudget.Round(2),
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetUserCategories lists a user's categories in creation order.
func (s *categoryService) GetUserCategories(userID string) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory changes the provided fields.
func (s *categoryService) UpdateCategory(userID, categoryID string, name, color *string, monthlyBudget *decimal.Decimal) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
		}
		if trimmed != category.Name {
			if err := s.checkNameFree(userID, trimmed, categoryID); err != nil {
				return nil, err
			}
		}
		updates["name"] = trimmed
	}
	if color != nil {
		updates["color"] = *color
	}
	if monthlyBudget != nil {
		if monthlyBudget.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly budget cannot be negative")
		}
		updates["monthly_budget"] = monthlyBudget.Round(2)
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetCategoryByID(userID, categoryID)
}

// DeleteCategory removes a category and clears it from any transactions that
// referenced it.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", categoryID, userID).Delete(&models.Category{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrCategoryNotFound
		}

		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category_id = ?", userID, categoryID).
			Update("category_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func (s *categoryService) checkNameFree(userID, name, exceptID string) error {
	q := s.db.Model(&models.Category{}).Where("user_id = ? AND name = ?", userID, name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}
