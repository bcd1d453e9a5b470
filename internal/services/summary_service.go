package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/models"
	"spendsync/internal/parser"
)

// DefaultTopCategories is the number of categories GetTopCategories returns
// when no limit is given.
const DefaultTopCategories = 3

var hundred = decimal.NewFromInt(100)

// summaryService computes month-to-date figures.
type summaryService struct {
	db       *gorm.DB
	resetDay int
	now      func() time.Time
}

// NewSummaryService creates a new SummaryServicer. resetDay is the day of
// month on which the budget month starts.
func NewSummaryService(db *gorm.DB, resetDay int) SummaryServicer {
	return newSummaryService(db, resetDay, time.Now)
}

func newSummaryService(db *gorm.DB, resetDay int, now func() time.Time) *summaryService {
	if resetDay < 1 || resetDay > 28 {
		resetDay = 1
	}
	return &summaryService{db: db, resetDay: resetDay, now: now}
}

// MonthWindow returns the budget month containing now: from resetDay of the
// month to resetDay of the next, in UTC.
func MonthWindow(now time.Time, resetDay int) (start, end time.Time) {
	now = now.UTC()
	year, month := now.Year(), now.Month()
	if now.Day() < resetDay {
		month--
	}
	start = time.Date(year, month, resetDay, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// GetSummary totals the user's transactions in the current budget month.
func (s *summaryService) GetSummary(userID string) (*Summary, error) {
	start, end := MonthWindow(s.now(), s.resetDay)

	rows, err := s.windowTransactions(userID, start, end, nil)
	if err != nil {
		return nil, err
	}

	income, expenses := sumByDirection(rows)
	return &Summary{
		PeriodStart: start,
		PeriodEnd:   end,
		Income:      income,
		Expenses:    expenses,
		Balance:     income.Sub(expenses),
		Count:       len(rows),
	}, nil
}

// GetCategoryUsage returns outgoing spend for every category this month, in
// category creation order.
func (s *summaryService) GetCategoryUsage(userID string) ([]CategoryUsage, error) {
	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	start, end := MonthWindow(s.now(), s.resetDay)
	outgoing := parser.DirectionOutgoing
	rows, err := s.windowTransactions(userID, start, end, &outgoing)
	if err != nil {
		return nil, err
	}

	spent := make(map[string]decimal.Decimal, len(categories))
	for _, row := range rows {
		if row.CategoryID == nil {
			continue
		}
		spent[*row.CategoryID] = spent[*row.CategoryID].Add(row.Amount)
	}

	usage := make([]CategoryUsage, 0, len(categories))
	for _, category := range categories {
		usage = append(usage, newCategoryUsage(category, spent[category.ID]))
	}
	return usage, nil
}

// GetTopCategories returns the categories with the highest spend this month.
// Ties keep creation order.
func (s *summaryService) GetTopCategories(userID string, limit int) ([]CategoryUsage, error) {
	if limit <= 0 {
		limit = DefaultTopCategories
	}

	usage, err := s.GetCategoryUsage(userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(usage, func(i, j int) bool {
		return usage[i].Spent.GreaterThan(usage[j].Spent)
	})
	if len(usage) > limit {
		usage = usage[:limit]
	}
	return usage, nil
}

func (s *summaryService) windowTransactions(userID string, start, end time.Time, direction *parser.Direction) ([]models.Transaction, error) {
	var rows []models.Transaction
	q := applyTransactionFilters(
		s.db.Where("user_id = ?", userID),
		TransactionFilter{FromDate: &start, ToDate: &end, Direction: direction},
	)
	if err := q.Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

func newCategoryUsage(category models.Category, spent decimal.Decimal) CategoryUsage {
	usage := CategoryUsage{
		Category:  category,
		Spent:     spent,
		Remaining: category.MonthlyBudget.Sub(spent),
	}
	if category.MonthlyBudget.IsPositive() {
		usage.Percentage = spent.Div(category.MonthlyBudget).Mul(hundred).Round(2).InexactFloat64()
	}
	return usage
}
