package services

import (
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
)

// uncategorizedLabel groups items without a category in reports.
const uncategorizedLabel = "Uncategorized"

// recentListCount caps the dashboard's recent-lists digest.
const recentListCount = 5

// analyticsService derives read-only reports from the item ledger. It never
// writes; every number is recomputed from the base facts on each call.
type analyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return &analyticsService{db: db}
}

// SpendReport aggregates the user's purchase activity over [startDate,
// endDate] (inclusive, day granularity), grouped per category. Bought items
// enter the window by purchase date; unbought items by creation date, so the
// per-category completion rates compare what was bought against what was
// planned in the same period.
func (s *analyticsService) SpendReport(userID string, startDate, endDate time.Time, categoryID *string) (*SpendReport, error) {
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

	windowEnd := endOfDay(endDate)
	query := s.db.Preload("Category").
		Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
		Where("shopping_lists.user_id = ? AND shopping_lists.deleted_at IS NULL", userID).
		Where("(items.date_bought >= ? AND items.date_bought <= ?) OR (items.bought = ? AND items.created_at >= ? AND items.created_at <= ?)",
			startDate, windowEnd, false, startDate, windowEnd)
	if categoryID != nil {
		query = query.Where("items.category_id = ?", *categoryID)
	}

	var items []models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	report := &SpendReport{StartDate: startDate, EndDate: endDate}
	lines := make(map[string]*CategoryReportLine)
	for i := range items {
		item := &items[i]

		report.TotalItems++
		report.TotalEstimated += item.TotalEstimated
		if item.Bought {
			report.BoughtItems++
			report.TotalSpent += item.TotalActual
		}

		name := uncategorizedLabel
		if item.Category != nil {
			name = item.Category.Name
		}
		line, ok := lines[name]
		if !ok {
			line = &CategoryReportLine{CategoryID: item.CategoryID, CategoryName: name}
			lines[name] = line
		}
		line.ItemCount++
		line.TotalEstimated += item.TotalEstimated
		if item.Bought {
			line.BoughtCount++
			line.TotalSpent += item.TotalActual
		}
	}

	if report.TotalItems > 0 {
		report.CompletionRate = float64(report.BoughtItems) / float64(report.TotalItems) * 100
	}

	report.Categories = make([]CategoryReportLine, 0, len(lines))
	for _, line := range lines {
		if line.ItemCount > 0 {
			line.CompletionRate = float64(line.BoughtCount) / float64(line.ItemCount) * 100
		}
		report.Categories = append(report.Categories, *line)
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].CategoryName < report.Categories[j].CategoryName
	})
	return report, nil
}

// Dashboard computes the cross-list aggregates: list and purchase counts,
// total spend, average list completion, per-priority item counts, and the
// combined usage of every budget whose window contains today.
func (s *analyticsService) Dashboard(userID string) (*DashboardStats, error) {
	stats := &DashboardStats{
		PriorityCounts: map[models.Priority]int64{
			models.PriorityHigh:   0,
			models.PriorityMedium: 0,
			models.PriorityLow:    0,
		},
	}

	if err := s.db.Model(&models.ShoppingList{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalLists).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	userItems := func() *gorm.DB {
		return s.db.Model(&models.Item{}).
			Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
			Where("shopping_lists.user_id = ? AND shopping_lists.deleted_at IS NULL", userID)
	}

	var bought struct {
		Count int64
		Spent float64
	}
	if err := userItems().Where("items.bought = ?", true).
		Select("COUNT(*) AS count, COALESCE(SUM(items.total_actual), 0) AS spent").
		Scan(&bought).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	stats.BoughtItems = bought.Count
	stats.UsedBudget = bought.Spent

	var priorityRows []struct {
		Priority models.Priority
		Count    int64
	}
	if err := userItems().Select("items.priority AS priority, COUNT(*) AS count").
		Group("items.priority").Scan(&priorityRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, row := range priorityRows {
		stats.PriorityCounts[row.Priority] = row.Count
	}

	// Average completion over all lists; lists without items count as 0.
	var completionRows []struct {
		ListID      string
		Total       int64
		BoughtCount int64
	}
	if err := userItems().
		Select("items.list_id AS list_id, COUNT(*) AS total, SUM(CASE WHEN items.bought THEN 1 ELSE 0 END) AS bought_count").
		Group("items.list_id").Scan(&completionRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if stats.TotalLists > 0 {
		var totalCompletion float64
		for _, row := range completionRows {
			if row.Total > 0 {
				totalCompletion += float64(row.BoughtCount) / float64(row.Total) * 100
			}
		}
		stats.AverageCompletion = totalCompletion / float64(stats.TotalLists)
	}

	if err := s.currentBudgetUsage(userID, stats); err != nil {
		return nil, err
	}

	var recent []models.ShoppingList
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(recentListCount).
		Find(&recent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byList := make(map[string]float64, len(completionRows))
	for _, row := range completionRows {
		if row.Total > 0 {
			byList[row.ListID] = float64(row.BoughtCount) / float64(row.Total) * 100
		}
	}
	stats.RecentLists = make([]ListDigest, 0, len(recent))
	for i := range recent {
		stats.RecentLists = append(stats.RecentLists, ListDigest{
			ListID:         recent[i].ID,
			Name:           recent[i].Name,
			State:          recent[i].State,
			CompletionRate: byList[recent[i].ID],
		})
	}
	return stats, nil
}

// currentBudgetUsage folds amount, spend, and remaining over every budget
// whose inclusive window contains today. Spend matches the reconciler's
// rules: bought items inside the window, exact category match.
func (s *analyticsService) currentBudgetUsage(userID string, stats *DashboardStats) error {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var budgets []models.Budget
	if err := s.db.Where("user_id = ? AND start_date <= ? AND end_date >= ?", userID, now, dayStart).
		Find(&budgets).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range budgets {
		budget := &budgets[i]
		stats.CurrentBudgetTotal += budget.Amount

		query := s.db.Model(&models.Item{}).
			Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
			Where("shopping_lists.user_id = ? AND shopping_lists.deleted_at IS NULL", userID).
			Where("items.bought = ? AND items.date_bought >= ? AND items.date_bought <= ?", true, budget.StartDate, endOfDay(budget.EndDate))
		if budget.CategoryID != nil {
			query = query.Where("items.category_id = ?", *budget.CategoryID)
		}

		var spent float64
		if err := query.Select("COALESCE(SUM(items.total_actual), 0)").Scan(&spent).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		stats.CurrentBudgetSpent += spent
	}
	stats.CurrentBudgetRemaining = stats.CurrentBudgetTotal - stats.CurrentBudgetSpent
	return nil
}
