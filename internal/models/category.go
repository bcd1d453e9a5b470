package models

import "github.com/shopspring/decimal"

// Category groups transactions and carries an optional monthly budget.
type Category struct {
	Base
	UserID        string          `gorm:"not null;uniqueIndex:idx_categories_user_name,priority:1" json:"user_id"`
	Name          string          `gorm:"not null;uniqueIndex:idx_categories_user_name,priority:2" json:"name"`
	Color         string          `json:"color,omitempty"`
	MonthlyBudget decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"monthly_budget"`
}
