package services

import (
	"testing"
	"time"

	"shoply/internal/models"
	"shoply/internal/testutil"
)

func TestBulkExecuteSelectors(t *testing.T) {
	t.Run("no_selector", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Execute(user.ID, BulkOperation{Type: BulkUpdateStatus, Bought: true})
		testutil.AssertAppError(t, err, "MISSING_TARGET")
	})

	t.Run("two_selectors", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)
		item := testutil.CreateTestItem(t, db, list.ID)

		_, err := svc.Execute(user.ID, BulkOperation{
			Type:    BulkUpdateStatus,
			ItemIDs: []string{item.ID},
			ListID:  &list.ID,
			Bought:  true,
		})
		testutil.AssertAppError(t, err, "MISSING_TARGET")
	})

	t.Run("empty_list_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)

		empty := ""
		_, err := svc.Execute(user.ID, BulkOperation{Type: BulkUpdateStatus, ListID: &empty, Bought: true})
		testutil.AssertAppError(t, err, "MISSING_TARGET")
	})

	t.Run("empty_target_set", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)

		_, err := svc.Execute(user.ID, BulkOperation{Type: BulkUpdateStatus, ListID: &list.ID, Bought: true})
		testutil.AssertAppError(t, err, "NO_MATCHING_ITEMS")
	})
}

func TestBulkUpdateStatus(t *testing.T) {
	t.Run("marks_and_counts_only_changed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)

		fresh := testutil.CreateTestItem(t, db, list.ID)
		already := testutil.CreateTestItem(t, db, list.ID)
		testutil.MarkBought(t, db, already, time.Now(), 5)

		changed, err := svc.Execute(user.ID, BulkOperation{Type: BulkUpdateStatus, ListID: &list.ID, Bought: true})
		testutil.AssertNoError(t, err)
		if changed != 1 {
			t.Errorf("expected 1 changed item, got %d", changed)
		}

		var reloaded models.Item
		db.First(&reloaded, "id = ?", fresh.ID)
		if !reloaded.Bought || reloaded.DateBought == nil {
			t.Error("expected item marked bought with a date")
		}
	})

	t.Run("all_already_in_state_reports_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)

		item := testutil.CreateTestItem(t, db, list.ID)
		when := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
		testutil.MarkBought(t, db, item, when, 5)

		changed, err := svc.Execute(user.ID, BulkOperation{Type: BulkUpdateStatus, ListID: &list.ID, Bought: true})
		testutil.AssertNoError(t, err)
		if changed != 0 {
			t.Errorf("expected 0 changed items, got %d", changed)
		}

		// A no-op must leave the stored row untouched.
		var reloaded models.Item
		db.First(&reloaded, "id = ?", item.ID)
		if reloaded.DateBought == nil || !reloaded.DateBought.Equal(when) {
			t.Errorf("expected bought date %v retained, got %v", when, reloaded.DateBought)
		}
	})

	t.Run("unmark_clears_dates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)

		item := testutil.CreateTestItem(t, db, list.ID)
		testutil.MarkBought(t, db, item, time.Now(), 5)

		changed, err := svc.Execute(user.ID, BulkOperation{Type: BulkUpdateStatus, ItemIDs: []string{item.ID}, Bought: false})
		testutil.AssertNoError(t, err)
		if changed != 1 {
			t.Errorf("expected 1 changed item, got %d", changed)
		}

		var reloaded models.Item
		db.First(&reloaded, "id = ?", item.ID)
		if reloaded.Bought {
			t.Error("expected item unbought")
		}
		if reloaded.DateBought != nil {
			t.Error("expected bought date cleared")
		}
	})
}

func TestBulkUpdateCategory(t *testing.T) {
	t.Run("moves_only_items_in_other_categories", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)
		food := testutil.CreateTestCategoryNamed(t, db, user.ID, "Food", nil)

		inPlace := testutil.CreateTestItem(t, db, list.ID)
		db.Model(inPlace).Update("category_id", food.ID)
		testutil.CreateTestItem(t, db, list.ID)

		changed, err := svc.Execute(user.ID, BulkOperation{
			Type:       BulkUpdateCategory,
			ListID:     &list.ID,
			CategoryID: &food.ID,
		})
		testutil.AssertNoError(t, err)
		if changed != 1 {
			t.Errorf("expected 1 changed item, got %d", changed)
		}
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)
		testutil.CreateTestItem(t, db, list.ID)

		bogus := "00000000-0000-0000-0000-000000000000"
		_, err := svc.Execute(user.ID, BulkOperation{
			Type:       BulkUpdateCategory,
			ListID:     &list.ID,
			CategoryID: &bogus,
		})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestBulkDelete(t *testing.T) {
	t.Run("removes_whole_selection", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)

		for i := 0; i < 5; i++ {
			testutil.CreateTestItem(t, db, list.ID)
		}

		deleted, err := svc.Execute(user.ID, BulkOperation{Type: BulkDelete, ListID: &list.ID})
		testutil.AssertNoError(t, err)
		if deleted != 5 {
			t.Errorf("expected 5 deletions, got %d", deleted)
		}

		var count int64
		db.Model(&models.Item{}).Where("list_id = ?", list.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected empty list, found %d items", count)
		}
	})

	t.Run("only_own_items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		otherList := testutil.CreateTestList(t, db, other.ID)
		foreign := testutil.CreateTestItem(t, db, otherList.ID)

		_, err := svc.Execute(owner.ID, BulkOperation{Type: BulkDelete, ItemIDs: []string{foreign.ID}})
		testutil.AssertAppError(t, err, "NO_MATCHING_ITEMS")
	})
}

func TestBulkArchive(t *testing.T) {
	t.Run("marks_remaining_items_bought", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)

		testutil.CreateTestItem(t, db, list.ID)
		done := testutil.CreateTestItem(t, db, list.ID)
		testutil.MarkBought(t, db, done, time.Now(), 3)

		changed, err := svc.Execute(user.ID, BulkOperation{Type: BulkArchive, ListID: &list.ID})
		testutil.AssertNoError(t, err)
		if changed != 1 {
			t.Errorf("expected 1 archived item, got %d", changed)
		}

		var unbought int64
		db.Model(&models.Item{}).Where("list_id = ? AND bought = ?", list.ID, false).Count(&unbought)
		if unbought != 0 {
			t.Errorf("expected no unbought items left, found %d", unbought)
		}
	})
}

func TestAdjustPrices(t *testing.T) {
	t.Run("increase_unbought_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)

		open := testutil.CreateTestItem(t, db, list.ID) // estimated 10
		bought := testutil.CreateTestItem(t, db, list.ID)
		testutil.MarkBought(t, db, bought, time.Now(), 10)

		changed, err := svc.AdjustPrices(user.ID, 10, true, nil)
		testutil.AssertNoError(t, err)
		if changed != 1 {
			t.Errorf("expected 1 adjusted item, got %d", changed)
		}

		var reloaded models.Item
		db.First(&reloaded, "id = ?", open.ID)
		if reloaded.EstimatedPrice != 11 {
			t.Errorf("expected estimated price 11, got %f", reloaded.EstimatedPrice)
		}
		if reloaded.TotalEstimated != 11 {
			t.Errorf("expected total estimated 11, got %f", reloaded.TotalEstimated)
		}

		var reloadedBought models.Item
		db.First(&reloadedBought, "id = ?", bought.ID)
		if reloadedBought.EstimatedPrice != 10 {
			t.Errorf("expected bought item untouched, got %f", reloadedBought.EstimatedPrice)
		}
	})

	t.Run("decrease", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)
		item := testutil.CreateTestItem(t, db, list.ID)

		_, err := svc.AdjustPrices(user.ID, 50, false, nil)
		testutil.AssertNoError(t, err)

		var reloaded models.Item
		db.First(&reloaded, "id = ?", item.ID)
		if reloaded.EstimatedPrice != 5 {
			t.Errorf("expected estimated price 5, got %f", reloaded.EstimatedPrice)
		}
	})

	t.Run("zero_price_items_skipped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)

		item := testutil.CreateTestItem(t, db, list.ID)
		db.Model(item).Updates(map[string]interface{}{"estimated_price": 0, "total_estimated": 0})

		changed, err := svc.AdjustPrices(user.ID, 10, true, nil)
		testutil.AssertNoError(t, err)
		if changed != 0 {
			t.Errorf("expected no adjustments, got %d", changed)
		}
	})

	t.Run("category_filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBulkService(db)
		user := testutil.CreateTestUser(t, db)
		list := testutil.CreateTestList(t, db, user.ID)
		food := testutil.CreateTestCategoryNamed(t, db, user.ID, "Food", nil)

		inCat := testutil.CreateTestItem(t, db, list.ID)
		db.Model(inCat).Update("category_id", food.ID)
		testutil.CreateTestItem(t, db, list.ID)

		changed, err := svc.AdjustPrices(user.ID, 10, true, &food.ID)
		testutil.AssertNoError(t, err)
		if changed != 1 {
			t.Errorf("expected 1 adjusted item, got %d", changed)
		}
	})
}
