package services

import (
	"testing"
	"time"

	"shoply/internal/models"
	"shoply/internal/testutil"
)

func TestSpendReport(t *testing.T) {
	t.Run("groups_per_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)
		food := testutil.CreateTestCategoryNamed(t, db, user.ID, "Food", nil)
		household := testutil.CreateTestCategoryNamed(t, db, user.ID, "Household", nil)

		now := time.Now()

		// Food: one bought for 12, one still pending.
		boughtFood := testutil.CreateTestItem(t, db, list.ID)
		db.Model(boughtFood).Update("category_id", food.ID)
		testutil.MarkBought(t, db, boughtFood, now.AddDate(0, 0, -1), 12)
		pendingFood := testutil.CreateTestItem(t, db, list.ID)
		db.Model(pendingFood).Update("category_id", food.ID)

		// Household: one bought for 5.
		boughtHousehold := testutil.CreateTestItem(t, db, list.ID)
		db.Model(boughtHousehold).Update("category_id", household.ID)
		testutil.MarkBought(t, db, boughtHousehold, now.AddDate(0, 0, -1), 5)

		// One pending item without a category.
		testutil.CreateTestItem(t, db, list.ID)

		report, err := svc.SpendReport(user.ID, now.AddDate(0, 0, -7), now, nil)
		testutil.AssertNoError(t, err)

		if report.TotalItems != 4 {
			t.Errorf("expected 4 items, got %d", report.TotalItems)
		}
		if report.BoughtItems != 2 {
			t.Errorf("expected 2 bought, got %d", report.BoughtItems)
		}
		if report.TotalSpent != 17 {
			t.Errorf("expected 17 spent, got %f", report.TotalSpent)
		}
		if report.CompletionRate != 50 {
			t.Errorf("expected 50%% completion, got %f", report.CompletionRate)
		}

		if len(report.Categories) != 3 {
			t.Fatalf("expected 3 category lines, got %d", len(report.Categories))
		}
		foodLine := report.Categories[0]
		if foodLine.CategoryName != "Food" {
			t.Fatalf("expected Food first, got %q", foodLine.CategoryName)
		}
		if foodLine.ItemCount != 2 || foodLine.BoughtCount != 1 {
			t.Errorf("expected Food 1/2, got %d/%d", foodLine.BoughtCount, foodLine.ItemCount)
		}
		if foodLine.TotalSpent != 12 {
			t.Errorf("expected Food spend 12, got %f", foodLine.TotalSpent)
		}
		if foodLine.CompletionRate != 50 {
			t.Errorf("expected Food completion 50, got %f", foodLine.CompletionRate)
		}

		householdLine := report.Categories[1]
		if householdLine.CategoryName != "Household" {
			t.Fatalf("expected Household second, got %q", householdLine.CategoryName)
		}
		if householdLine.TotalSpent != 5 || householdLine.CompletionRate != 100 {
			t.Errorf("expected Household 5 at 100%%, got %f at %f", householdLine.TotalSpent, householdLine.CompletionRate)
		}

		uncategorized := report.Categories[2]
		if uncategorized.CategoryName != "Uncategorized" {
			t.Fatalf("expected Uncategorized last, got %q", uncategorized.CategoryName)
		}
		if uncategorized.ItemCount != 1 || uncategorized.BoughtCount != 0 {
			t.Errorf("expected Uncategorized 0/1, got %d/%d", uncategorized.BoughtCount, uncategorized.ItemCount)
		}
	})

	t.Run("window_excludes_outside_purchases", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)

		now := time.Now()

		inWindow := testutil.CreateTestItem(t, db, list.ID)
		testutil.MarkBought(t, db, inWindow, now.AddDate(0, 0, -35), 10)
		outside := testutil.CreateTestItem(t, db, list.ID)
		testutil.MarkBought(t, db, outside, now.AddDate(0, 0, -5), 20)

		// A pending item created today is outside a purely historical window.
		testutil.CreateTestItem(t, db, list.ID)

		report, err := svc.SpendReport(user.ID, now.AddDate(0, 0, -40), now.AddDate(0, 0, -30), nil)
		testutil.AssertNoError(t, err)

		if report.TotalItems != 1 {
			t.Errorf("expected only the purchase inside the window, got %d items", report.TotalItems)
		}
		if report.TotalSpent != 10 {
			t.Errorf("expected 10 spent, got %f", report.TotalSpent)
		}
	})

	t.Run("end_date_inclusive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)

		day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
		item := testutil.CreateTestItem(t, db, list.ID)
		testutil.MarkBought(t, db, item, day.Add(18*time.Hour), 10)

		report, err := svc.SpendReport(user.ID, day, day, nil)
		testutil.AssertNoError(t, err)

		if report.BoughtItems != 1 {
			t.Errorf("expected a purchase late on the end date to count, got %d", report.BoughtItems)
		}
	})

	t.Run("category_filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)
		food := testutil.CreateTestCategoryNamed(t, db, user.ID, "Food", nil)

		now := time.Now()
		foodItem := testutil.CreateTestItem(t, db, list.ID)
		db.Model(foodItem).Update("category_id", food.ID)
		testutil.MarkBought(t, db, foodItem, now.AddDate(0, 0, -1), 8)
		other := testutil.CreateTestItem(t, db, list.ID)
		testutil.MarkBought(t, db, other, now.AddDate(0, 0, -1), 99)

		report, err := svc.SpendReport(user.ID, now.AddDate(0, 0, -7), now, &food.ID)
		testutil.AssertNoError(t, err)

		if report.TotalItems != 1 || report.TotalSpent != 8 {
			t.Errorf("expected 1 item / 8 spent, got %d / %f", report.TotalItems, report.TotalSpent)
		}

		bogus := "b8f7c3a0-0000-0000-0000-000000000000"
		_, err = svc.SpendReport(user.ID, now.AddDate(0, 0, -7), now, &bogus)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("invalid_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)
		user := testutil.CreateTestUser(t, db)

		now := time.Now()
		_, err := svc.SpendReport(user.ID, now, now.AddDate(0, 0, -1), nil)
		testutil.AssertAppError(t, err, "INVALID_DATE_RANGE")
	})
}

func TestDashboard(t *testing.T) {
	t.Run("aggregates_across_lists", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)
		user := testutil.CreateTestUser(t, db)

		older := testutil.CreateTestList(t, db, user.ID)
		db.Model(older).Update("created_at", time.Now().Add(-time.Hour))
		newer := testutil.CreateTestList(t, db, user.ID)

		// Older list: one bought of two; newer list stays empty.
		bought := testutil.CreateTestItem(t, db, older.ID)
		db.Model(bought).Update("priority", models.PriorityHigh)
		testutil.MarkBought(t, db, bought, time.Now(), 20)
		testutil.CreateTestItem(t, db, older.ID)

		// A current all-category budget of 1000.
		testutil.CreateTestBudget(t, db, user.ID, nil)

		// Another user's activity must not leak in.
		stranger := testutil.CreateTestUser(t, db)
		strangerList := testutil.CreateTestList(t, db, stranger.ID)
		strangerItem := testutil.CreateTestItem(t, db, strangerList.ID)
		testutil.MarkBought(t, db, strangerItem, time.Now(), 500)

		stats, err := svc.Dashboard(user.ID)
		testutil.AssertNoError(t, err)

		if stats.TotalLists != 2 {
			t.Errorf("expected 2 lists, got %d", stats.TotalLists)
		}
		if stats.BoughtItems != 1 {
			t.Errorf("expected 1 bought item, got %d", stats.BoughtItems)
		}
		if stats.UsedBudget != 20 {
			t.Errorf("expected 20 used budget, got %f", stats.UsedBudget)
		}
		if stats.AverageCompletion != 25 {
			t.Errorf("expected average completion 25, got %f", stats.AverageCompletion)
		}
		if stats.PriorityCounts[models.PriorityHigh] != 1 {
			t.Errorf("expected 1 high priority item, got %d", stats.PriorityCounts[models.PriorityHigh])
		}
		if stats.PriorityCounts[models.PriorityMedium] != 1 {
			t.Errorf("expected 1 medium priority item, got %d", stats.PriorityCounts[models.PriorityMedium])
		}
		if stats.PriorityCounts[models.PriorityLow] != 0 {
			t.Errorf("expected no low priority items, got %d", stats.PriorityCounts[models.PriorityLow])
		}
		if stats.CurrentBudgetTotal != 1000 {
			t.Errorf("expected 1000 budget total, got %f", stats.CurrentBudgetTotal)
		}
		if stats.CurrentBudgetSpent != 20 {
			t.Errorf("expected 20 budget spent, got %f", stats.CurrentBudgetSpent)
		}
		if stats.CurrentBudgetRemaining != 980 {
			t.Errorf("expected 980 remaining, got %f", stats.CurrentBudgetRemaining)
		}

		if len(stats.RecentLists) != 2 {
			t.Fatalf("expected 2 recent lists, got %d", len(stats.RecentLists))
		}
		if stats.RecentLists[0].ListID != newer.ID {
			t.Errorf("expected the newest list first, got %s", stats.RecentLists[0].ListID)
		}
		if stats.RecentLists[1].CompletionRate != 50 {
			t.Errorf("expected 50%% completion on the older list, got %f", stats.RecentLists[1].CompletionRate)
		}
	})

	t.Run("expired_budget_ignored", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)
		user := testutil.CreateTestUser(t, db)

		budget := testutil.CreateTestBudget(t, db, user.ID, nil)
		db.Model(budget).Updates(map[string]interface{}{
			"start_date": time.Now().AddDate(0, -2, 0),
			"end_date":   time.Now().AddDate(0, -1, 0),
		})

		stats, err := svc.Dashboard(user.ID)
		testutil.AssertNoError(t, err)

		if stats.CurrentBudgetTotal != 0 {
			t.Errorf("expected past budgets excluded, got total %f", stats.CurrentBudgetTotal)
		}
	})

	t.Run("empty_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)
		user := testutil.CreateTestUser(t, db)

		stats, err := svc.Dashboard(user.ID)
		testutil.AssertNoError(t, err)

		if stats.TotalLists != 0 || stats.BoughtItems != 0 || stats.AverageCompletion != 0 {
			t.Errorf("expected zeroed stats, got %+v", stats)
		}
		if len(stats.RecentLists) != 0 {
			t.Errorf("expected no recent lists, got %d", len(stats.RecentLists))
		}
	})
}
