package services

import (
	"time"

	"shoply/internal/models"
	"shoply/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// CategoryServicer defines the contract for the category tree.
type CategoryServicer interface {
	CreateCategory(userID, name, description, color string, parentID *string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	RenameCategory(userID, categoryID, newName string) (*models.Category, error)
	UpdateCategory(userID, categoryID, description, color string) (*models.Category, error)
	ReparentCategory(userID, categoryID string, newParentID *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
	GetCategoryItemCount(userID, categoryID string) (int64, error)
	GetSubtreeItemCount(userID, categoryID string) (int64, error)
}

// ItemServicer defines the contract for the item ledger.
type ItemServicer interface {
	CreateItem(userID, listID string, input ItemInput) (*models.Item, error)
	GetItemByID(userID, itemID string) (*models.Item, error)
	GetListItems(userID, listID string, page pagination.PageRequest) (*pagination.PageResponse[models.Item], error)
	UpdateItem(userID, itemID string, input ItemInput) (*models.Item, error)
	SetBought(userID, itemID string, bought bool) (*models.Item, error)
	DeleteItem(userID, itemID string) error
	CreateItems(userID, listID string, inputs []ItemInput) ([]models.Item, error)
}

// ItemInput carries the writable fields of an item.
type ItemInput struct {
	Name           string
	Quantity       float64
	Unit           models.Unit
	CategoryID     *string
	Priority       models.Priority
	EstimatedPrice float64
	ActualPrice    float64
	Store          string
	Notes          string
}

// ListSummary holds the derived attributes of a shopping list, recomputed
// from its items on every read.
type ListSummary struct {
	ListID         string  `json:"list_id"`
	TotalItems     int     `json:"total_items"`
	CompletedItems int     `json:"completed_items"`
	CompletionRate float64 `json:"completion_rate"`
	TotalBudget    float64 `json:"total_budget"`
	ActualSpent    float64 `json:"actual_spent"`
	BudgetVariance float64 `json:"budget_variance"`
}

// ListServicer defines the contract for shopping lists and their aggregates.
type ListServicer interface {
	CreateList(userID, name, notes, color string) (*models.ShoppingList, error)
	GetUserLists(userID string, page pagination.PageRequest, state *models.ListState) (*pagination.PageResponse[models.ShoppingList], error)
	GetListByID(userID, listID string) (*models.ShoppingList, error)
	UpdateList(userID, listID, name, notes string, state *models.ListState) (*models.ShoppingList, error)
	DeleteList(userID, listID string) error
	GetListSummary(userID, listID string) (*ListSummary, error)
	DuplicateList(userID, listID, newName string, copyItems, resetBought bool) (*models.ShoppingList, error)
}

// BudgetProgress contains reconciled spend data for a budget's window.
type BudgetProgress struct {
	BudgetID        string  `json:"budget_id"`
	Amount          float64 `json:"amount"`
	ActualSpent     float64 `json:"actual_spent"`
	Remaining       float64 `json:"remaining"`
	UsagePercentage float64 `json:"usage_percentage"`
	MatchedItems    int     `json:"matched_items"`
}

// BudgetServicer defines the contract for budget reconciliation.
type BudgetServicer interface {
	CreateBudget(userID, name string, amount float64, period models.BudgetPeriod, startDate, endDate time.Time, categoryID *string) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, period *models.BudgetPeriod, categoryID *string) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID, name string, amount *float64, period *models.BudgetPeriod, endDate *time.Time) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error)
	GenerateMonthlyBudgets(userID string) (int, error)
}

// PlanLine is one row of a category budget plan: a category, its trailing
// historical spend, and the amount the user allocates to it.
type PlanLine struct {
	CategoryID      string  `json:"category_id"`
	CategoryName    string  `json:"category_name"`
	HistoricalSpend float64 `json:"historical_spend"`
	Allocated       float64 `json:"allocated"`
}

// Allocation assigns part of a plan's target amount to one category.
type Allocation struct {
	CategoryID string  `json:"category_id" binding:"required"`
	Amount     float64 `json:"amount"`
}

// PlanningServicer defines the contract for historical projection and
// budget planning.
type PlanningServicer interface {
	TrailingSpend(userID string, categoryID *string, months int) (float64, error)
	SuggestBudget(userID string, months int) (float64, error)
	BuildPlanLines(userID string) ([]PlanLine, error)
	CreateCategoryPlan(userID string, target float64, startDate time.Time, period models.BudgetPeriod, allocations []Allocation) ([]models.Budget, error)
	CreatePeriodBudget(userID, name string, amount float64, startDate time.Time, period models.BudgetPeriod) (*models.Budget, error)
}

// CategoryReportLine is one per-category row of a spend report.
type CategoryReportLine struct {
	CategoryID     *string `json:"category_id,omitempty"`
	CategoryName   string  `json:"category_name"`
	ItemCount      int     `json:"item_count"`
	BoughtCount    int     `json:"bought_count"`
	TotalSpent     float64 `json:"total_spent"`
	TotalEstimated float64 `json:"total_estimated"`
	CompletionRate float64 `json:"completion_rate"`
}

// SpendReport aggregates purchase activity over an arbitrary date range,
// grouped per category.
type SpendReport struct {
	StartDate      time.Time            `json:"start_date"`
	EndDate        time.Time            `json:"end_date"`
	TotalItems     int                  `json:"total_items"`
	BoughtItems    int                  `json:"bought_items"`
	TotalSpent     float64              `json:"total_spent"`
	TotalEstimated float64              `json:"total_estimated"`
	CompletionRate float64              `json:"completion_rate"`
	Categories     []CategoryReportLine `json:"categories"`
}

// ListDigest is the compact list representation shown on the dashboard.
type ListDigest struct {
	ListID         string           `json:"list_id"`
	Name           string           `json:"name"`
	State          models.ListState `json:"state"`
	CompletionRate float64          `json:"completion_rate"`
}

// DashboardStats holds the cross-list aggregates for the user's dashboard.
type DashboardStats struct {
	TotalLists             int64                     `json:"total_lists"`
	BoughtItems            int64                     `json:"bought_items"`
	UsedBudget             float64                   `json:"used_budget"`
	AverageCompletion      float64                   `json:"average_completion"`
	PriorityCounts         map[models.Priority]int64 `json:"priority_counts"`
	CurrentBudgetTotal     float64                   `json:"current_budget_total"`
	CurrentBudgetSpent     float64                   `json:"current_budget_spent"`
	CurrentBudgetRemaining float64                   `json:"current_budget_remaining"`
	RecentLists            []ListDigest              `json:"recent_lists"`
}

// AnalyticsServicer defines the contract for spend reporting and the
// dashboard aggregates.
type AnalyticsServicer interface {
	SpendReport(userID string, startDate, endDate time.Time, categoryID *string) (*SpendReport, error)
	Dashboard(userID string) (*DashboardStats, error)
}

// BulkOperationType enumerates the supported bulk mutations.
type BulkOperationType string

const (
	BulkUpdateStatus   BulkOperationType = "update_status"
	BulkUpdateCategory BulkOperationType = "update_category"
	BulkUpdatePriority BulkOperationType = "update_priority"
	BulkDelete         BulkOperationType = "delete"
	BulkArchive        BulkOperationType = "archive"
)

// BulkOperation describes one bulk mutation: the operation kind, exactly one
// target selector (ItemIDs, ListID or All), and the operation payload.
type BulkOperation struct {
	Type BulkOperationType

	// Target selector: exactly one must be set.
	ItemIDs []string
	ListID  *string
	All     bool

	// Payloads, read depending on Type.
	Bought     bool
	CategoryID *string
	Priority   models.Priority
}

// BulkServicer defines the contract for the bulk mutator.
type BulkServicer interface {
	Execute(userID string, op BulkOperation) (int, error)
	AdjustPrices(userID string, percentage float64, increase bool, categoryID *string) (int, error)
}

// ImportRowError records a skipped import row and the reason.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult reports the outcome of an item import.
type ImportResult struct {
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	RowErrors []ImportRowError `json:"row_errors,omitempty"`
}

// ImportExportServicer maps flat field records to and from item records.
type ImportExportServicer interface {
	ImportItems(userID, listID string, rows []map[string]string, override bool) (*ImportResult, error)
	ExportItems(userID string, listID *string, includeBought bool) ([]map[string]string, error)
}

// ExportColumns is the fixed column order for exported item records.
var ExportColumns = []string{
	"Name", "Quantity", "Unit", "Category", "Priority",
	"Estimated_Price", "Bought", "Store", "Notes",
}
