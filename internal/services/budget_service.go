package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
	"shoply/internal/pagination"
)

// defaultMonthlyAmount is the placeholder amount for auto-generated
// monthly budgets.
const defaultMonthlyAmount = 1000

// budgetService reconciles budgets against purchased items.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new budget for an inclusive date window, optionally
// scoped to one category.
func (s *budgetService) CreateBudget(userID, name string, amount float64, period models.BudgetPeriod, startDate, endDate time.Time, categoryID *string) (*models.Budget, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if endDate.Before(startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	if categoryID != nil {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("id = ? AND user_id = ?", *categoryID, userID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Name:       name,
		Amount:     amount,
		Period:     period,
		StartDate:  startDate,
		EndDate:    endDate,
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets for the user with
// optional period and category filters.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest, period *models.BudgetPeriod, categoryID *string) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if period != nil {
		base = base.Where("period = ?", *period)
	}
	if categoryID != nil {
		base = base.Where("category_id = ?", *categoryID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Order("start_date DESC").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields. Moving the end date
// before the start date is rejected.
func (s *budgetService) UpdateBudget(userID, budgetID, name string, amount *float64, period *models.BudgetPeriod, endDate *time.Time) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if endDate != nil && endDate.Before(budget.StartDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if amount != nil {
		updates["amount"] = *amount
	}
	if period != nil {
		updates["period"] = *period
	}
	if endDate != nil {
		updates["end_date"] = *endDate
	}
	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress reconciles a budget against the item ledger: bought
// items whose purchase date falls inside the inclusive window and whose
// category matches the budget's category exactly (a budget without a
// category matches all categories; subcategory spend does not roll up into
// a parent category's budget).
func (s *budgetService) GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	windowEnd := endOfDay(budget.EndDate)

	query := s.db.Model(&models.Item{}).
		Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
		Where("shopping_lists.user_id = ? AND shopping_lists.deleted_at IS NULL", userID).
		Where("items.bought = ? AND items.date_bought >= ? AND items.date_bought <= ?", true, budget.StartDate, windowEnd)
	if budget.CategoryID != nil {
		query = query.Where("items.category_id = ?", *budget.CategoryID)
	}

	var result struct {
		Spent float64
		Count int
	}
	if err := query.Select("COALESCE(SUM(items.total_actual), 0) AS spent, COUNT(*) AS count").
		Scan(&result).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	progress := &BudgetProgress{
		BudgetID:     budget.ID,
		Amount:       budget.Amount,
		ActualSpent:  result.Spent,
		Remaining:    budget.Amount - result.Spent,
		MatchedItems: result.Count,
	}
	if budget.Amount > 0 {
		progress.UsagePercentage = result.Spent / budget.Amount * 100
	}
	return progress, nil
}

// GenerateMonthlyBudgets creates a placeholder monthly budget for every
// category of the user that does not already have one starting on the first
// day of the current month. Returns the number of budgets created.
func (s *budgetService) GenerateMonthlyBudgets(userID string) (int, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	// Jump past the end of the month regardless of its length, then truncate.
	next := monthStart.AddDate(0, 0, 27).AddDate(0, 0, 4)
	nextMonthStart := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := nextMonthStart.AddDate(0, 0, -1)

	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range categories {
			category := &categories[i]

			var count int64
			if err := tx.Model(&models.Budget{}).
				Where("user_id = ? AND category_id = ? AND period = ? AND start_date = ?",
					userID, category.ID, models.BudgetPeriodMonthly, monthStart).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			budget := &models.Budget{
				UserID:     userID,
				CategoryID: &category.ID,
				Name:       fmt.Sprintf("Budget %s for %s", category.Name, monthStart.Format("January 2006")),
				Amount:     defaultMonthlyAmount,
				Period:     models.BudgetPeriodMonthly,
				StartDate:  monthStart,
				EndDate:    monthEnd,
			}
			if err := tx.Create(budget).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return created, nil
}

// endOfDay pushes a date to the last instant of its calendar day so that
// inclusive date windows also cover purchases made during the final day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}
