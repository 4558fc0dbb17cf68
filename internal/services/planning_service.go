package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
)

const (
	// budgetSuggestionBuffer is the flat margin added on top of the
	// trailing monthly average when suggesting a budget.
	budgetSuggestionBuffer = 1.10

	// allocationTolerance is the absolute tolerance, in currency units,
	// when checking that plan allocations sum to the target.
	allocationTolerance = 0.01

	// planLineWindowDays is the trailing window used to prefill plan lines
	// with historical spend per category.
	planLineWindowDays = 90
)

// planningService computes trailing-spend statistics and turns them into
// budget suggestions and category budget plans.
type planningService struct {
	db *gorm.DB
}

// NewPlanningService creates a new PlanningServicer.
func NewPlanningService(db *gorm.DB) PlanningServicer {
	return &planningService{db: db}
}

// TrailingSpend sums the actual totals of bought items purchased within the
// last months*30 days, optionally restricted to one category. The window is
// a fixed 30-day-per-month approximation, not calendar months.
func (s *planningService) TrailingSpend(userID string, categoryID *string, months int) (float64, error) {
	if months <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "months must be positive")
	}

	now := time.Now()
	windowStart := now.AddDate(0, 0, -30*months)
	return s.spentBetween(userID, categoryID, windowStart, now)
}

// SuggestBudget proposes a single budget amount from the trailing monthly
// average across all categories, with a flat 10% buffer on top.
func (s *planningService) SuggestBudget(userID string, months int) (float64, error) {
	total, err := s.TrailingSpend(userID, nil, months)
	if err != nil {
		return 0, err
	}
	return total / float64(months) * budgetSuggestionBuffer, nil
}

// BuildPlanLines returns one plan line per category of the user, prefilled
// with the category's spend over the last 90 days and a zero allocation.
func (s *planningService) BuildPlanLines(userID string) ([]PlanLine, error) {
	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).Order("complete_name").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	windowStart := now.AddDate(0, 0, -planLineWindowDays)

	lines := make([]PlanLine, 0, len(categories))
	for i := range categories {
		spent, err := s.spentBetween(userID, &categories[i].ID, windowStart, now)
		if err != nil {
			return nil, err
		}
		lines = append(lines, PlanLine{
			CategoryID:      categories[i].ID,
			CategoryName:    categories[i].CompleteName,
			HistoricalSpend: spent,
		})
	}
	return lines, nil
}

// CreateCategoryPlan validates that the allocations sum to the target within
// a fixed absolute tolerance and then creates one budget per category with a
// positive allocation, all inside one transaction. On mismatch the error
// carries both sums so callers can display the discrepancy.
func (s *planningService) CreateCategoryPlan(userID string, target float64, startDate time.Time, period models.BudgetPeriod, allocations []Allocation) ([]models.Budget, error) {
	var allocated float64
	for _, a := range allocations {
		allocated += a.Amount
	}
	if math.Abs(allocated-target) > allocationTolerance {
		return nil, apperrors.WithMessage(apperrors.ErrAllocationMismatch,
			fmt.Sprintf("allocations sum to %.2f but the target is %.2f", allocated, target))
	}

	endDate := periodEndDate(startDate, period)

	var created []models.Budget
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, a := range allocations {
			if a.Amount <= 0 {
				continue
			}

			var category models.Category
			if err := tx.Where("id = ? AND user_id = ?", a.CategoryID, userID).First(&category).Error; err != nil {
				return apperrors.ErrCategoryNotFound
			}

			budget := models.Budget{
				UserID:     userID,
				CategoryID: &category.ID,
				Name:       fmt.Sprintf("Budget %s - %s", category.Name, startDate.Format("January 2006")),
				Amount:     a.Amount,
				Period:     period,
				StartDate:  startDate,
				EndDate:    endDate,
			}
			if err := tx.Create(&budget).Error; err != nil {
				return err
			}
			created = append(created, budget)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return created, nil
}

// CreatePeriodBudget creates a single budget whose end date is derived from
// the period: six more days for weekly, the end of the calendar month for
// monthly, and one year minus a day for yearly.
func (s *planningService) CreatePeriodBudget(userID, name string, amount float64, startDate time.Time, period models.BudgetPeriod) (*models.Budget, error) {
	if name == "" {
		name = fmt.Sprintf("Budget %s", startDate.Format("January 2006"))
	}

	budget := &models.Budget{
		UserID:    userID,
		Name:      name,
		Amount:    amount,
		Period:    period,
		StartDate: startDate,
		EndDate:   periodEndDate(startDate, period),
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// spentBetween sums total_actual over the user's bought items purchased in
// [from, to], optionally restricted to one exact category.
func (s *planningService) spentBetween(userID string, categoryID *string, from, to time.Time) (float64, error) {
	query := s.db.Model(&models.Item{}).
		Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
		Where("shopping_lists.user_id = ? AND shopping_lists.deleted_at IS NULL", userID).
		Where("items.bought = ? AND items.date_bought >= ? AND items.date_bought <= ?", true, from, to)
	if categoryID != nil {
		query = query.Where("items.category_id = ?", *categoryID)
	}

	var total float64
	if err := query.Select("COALESCE(SUM(items.total_actual), 0)").Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// periodEndDate computes the inclusive end of a budget window for a period
// starting at startDate. The monthly case skips into the next month via
// day 28 plus four days so it works for every month length.
func periodEndDate(startDate time.Time, period models.BudgetPeriod) time.Time {
	switch period {
	case models.BudgetPeriodDaily:
		return startDate
	case models.BudgetPeriodWeekly:
		return startDate.AddDate(0, 0, 6)
	case models.BudgetPeriodYearly:
		return startDate.AddDate(1, 0, 0).AddDate(0, 0, -1)
	default: // monthly
		day28 := time.Date(startDate.Year(), startDate.Month(), 28, 0, 0, 0, 0, startDate.Location())
		next := day28.AddDate(0, 0, 4)
		nextMonthStart := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, startDate.Location())
		return nextMonthStart.AddDate(0, 0, -1)
	}
}
