package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"shoply/internal/models"

	"gorm.io/gorm"
)

// counter generates unique suffixes for fixture names and emails.
var counter atomic.Int64

// CreateTestUser creates an active user with a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	n := counter.Add(1)
	user := &models.User{
		Email:     fmt.Sprintf("user%d@example.com", n),
		Password:  "$2a$10$WVT6G2G8Z61WXgFMFz4W1.Aluf36Vb7DInSu/ks7l07f1NDKTHRyy", // "password"
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", n),
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a root category with a unique name and a
// consistent materialized path and complete name.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, userID, fmt.Sprintf("Category %d", counter.Add(1)), nil)
}

// CreateTestCategoryNamed creates a category with the given name under an
// optional parent, maintaining Path and CompleteName the way the category
// service does.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, userID, name string, parent *models.Category) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   name,
	}
	if parent != nil {
		category.ParentID = &parent.ID
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}

	if parent != nil {
		category.CompleteName = parent.CompleteName + " / " + name
		category.Path = parent.Path + category.ID + "/"
	} else {
		category.CompleteName = name
		category.Path = category.ID + "/"
	}
	if err := db.Model(category).Updates(map[string]interface{}{
		"complete_name": category.CompleteName,
		"path":          category.Path,
	}).Error; err != nil {
		t.Fatalf("failed to set category path: %v", err)
	}
	return category
}

// CreateTestList creates a draft shopping list with a unique name.
func CreateTestList(t *testing.T, db *gorm.DB, userID string) *models.ShoppingList {
	t.Helper()

	list := &models.ShoppingList{
		UserID: userID,
		Name:   fmt.Sprintf("List %d", counter.Add(1)),
		State:  models.ListStateDraft,
	}
	if err := db.Create(list).Error; err != nil {
		t.Fatalf("failed to create test list: %v", err)
	}
	return list
}

// CreateTestItem creates an unbought item in the given list with quantity 1
// and an estimated price of 10, totals already computed.
func CreateTestItem(t *testing.T, db *gorm.DB, listID string) *models.Item {
	t.Helper()

	item := &models.Item{
		ListID:         listID,
		Name:           fmt.Sprintf("Item %d", counter.Add(1)),
		Quantity:       1,
		Unit:           models.UnitPiece,
		Priority:       models.PriorityMedium,
		EstimatedPrice: 10,
	}
	item.RecomputeTotals()
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test item: %v", err)
	}
	return item
}

// MarkBought flips an item to bought with the given purchase instant and
// actual price, keeping the derived totals consistent.
func MarkBought(t *testing.T, db *gorm.DB, item *models.Item, when time.Time, actualPrice float64) {
	t.Helper()

	item.Bought = true
	item.DateBought = &when
	item.ActualPrice = actualPrice
	item.RecomputeTotals()
	if err := db.Model(item).Updates(map[string]interface{}{
		"bought":       true,
		"date_bought":  item.DateBought,
		"actual_price": item.ActualPrice,
		"total_actual": item.TotalActual,
	}).Error; err != nil {
		t.Fatalf("failed to mark item bought: %v", err)
	}
}

// CreateTestBudget creates a monthly budget of 1000 covering the current
// calendar month, optionally scoped to a category.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, categoryID *string) *models.Budget {
	t.Helper()

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Name:       fmt.Sprintf("Budget %d", counter.Add(1)),
		Amount:     1000,
		Period:     models.BudgetPeriodMonthly,
		StartDate:  start,
		EndDate:    end,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
