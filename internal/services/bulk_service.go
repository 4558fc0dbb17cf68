package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
)

// bulkService applies a single operation uniformly across a selected set of
// items. Every operation runs in one transaction: either all matched items
// are mutated or none are, and concurrent readers never observe a partially
// applied bulk change.
type bulkService struct {
	db *gorm.DB
}

// NewBulkService creates a new BulkServicer.
func NewBulkService(db *gorm.DB) BulkServicer {
	return &bulkService{db: db}
}

// Execute resolves the operation's target selector, applies the mutation to
// the items that would actually change, and returns how many changed.
// No-op items are excluded from both the mutation and the count; an empty
// target set is an error rather than a silent success.
func (s *bulkService) Execute(userID string, op BulkOperation) (int, error) {
	if err := validateSelector(op); err != nil {
		return 0, err
	}
	if op.Type == BulkUpdateCategory && op.CategoryID != nil {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("id = ? AND user_id = ?", *op.CategoryID, userID).
			Count(&count).Error; err != nil {
			return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return 0, apperrors.ErrCategoryNotFound
		}
	}

	changed := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		items, err := s.resolveTarget(tx, userID, op)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperrors.ErrNoMatchingItems
		}

		switch op.Type {
		case BulkUpdateStatus:
			changed, err = s.updateStatus(tx, items, op.Bought)
		case BulkUpdateCategory:
			changed, err = s.updateCategory(tx, items, op.CategoryID)
		case BulkUpdatePriority:
			changed, err = s.updatePriority(tx, items, op.Priority)
		case BulkDelete:
			changed, err = s.deleteItems(tx, items)
		case BulkArchive:
			// Archiving marks every still-unbought item as bought.
			changed, err = s.updateStatus(tx, items, true)
		default:
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported bulk operation type")
		}
		return err
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return 0, appErr
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return changed, nil
}

// validateSelector enforces that exactly one target selector is set.
func validateSelector(op BulkOperation) error {
	selectors := 0
	if len(op.ItemIDs) > 0 {
		selectors++
	}
	if op.ListID != nil {
		if *op.ListID == "" {
			return apperrors.WithMessage(apperrors.ErrMissingTarget, "target list id is empty")
		}
		selectors++
	}
	if op.All {
		selectors++
	}
	if selectors != 1 {
		return apperrors.ErrMissingTarget
	}
	return nil
}

// resolveTarget loads the selected items in one query, scoped to the user.
func (s *bulkService) resolveTarget(tx *gorm.DB, userID string, op BulkOperation) ([]models.Item, error) {
	query := tx.
		Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
		Where("shopping_lists.user_id = ? AND shopping_lists.deleted_at IS NULL", userID)

	switch {
	case len(op.ItemIDs) > 0:
		query = query.Where("items.id IN ?", op.ItemIDs)
	case op.ListID != nil:
		query = query.Where("items.list_id = ?", *op.ListID)
	}

	var items []models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *bulkService) updateStatus(tx *gorm.DB, items []models.Item, bought bool) (int, error) {
	var dateBought *time.Time
	if bought {
		now := time.Now()
		dateBought = &now
	}

	ids := make([]string, 0, len(items))
	for i := range items {
		if items[i].Bought != bought {
			ids = append(ids, items[i].ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err := tx.Model(&models.Item{}).Where("id IN ?", ids).Updates(map[string]interface{}{
		"bought":      bought,
		"date_bought": dateBought,
	}).Error
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *bulkService) updateCategory(tx *gorm.DB, items []models.Item, categoryID *string) (int, error) {
	ids := make([]string, 0, len(items))
	for i := range items {
		if !equalCategory(items[i].CategoryID, categoryID) {
			ids = append(ids, items[i].ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err := tx.Model(&models.Item{}).Where("id IN ?", ids).
		Update("category_id", categoryID).Error
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *bulkService) updatePriority(tx *gorm.DB, items []models.Item, priority models.Priority) (int, error) {
	if priority == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "target priority is required")
	}

	ids := make([]string, 0, len(items))
	for i := range items {
		if items[i].Priority != priority {
			ids = append(ids, items[i].ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err := tx.Model(&models.Item{}).Where("id IN ?", ids).
		Update("priority", priority).Error
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// deleteItems removes every targeted item unconditionally; removal always
// counts as a change.
func (s *bulkService) deleteItems(tx *gorm.DB, items []models.Item) (int, error) {
	ids := make([]string, 0, len(items))
	for i := range items {
		ids = append(ids, items[i].ID)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Item{}).Error; err != nil {
		return 0, err
	}
	return len(ids), nil
}

// AdjustPrices multiplies the estimated price of every unbought item,
// optionally restricted to one category, by (1 ± percentage/100). Items with
// no estimated price are left untouched. Returns how many items changed.
func (s *bulkService) AdjustPrices(userID string, percentage float64, increase bool, categoryID *string) (int, error) {
	if percentage < 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "percentage must not be negative")
	}

	factor := 1 + percentage/100
	if !increase {
		factor = 1 - percentage/100
	}

	adjusted := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		query := tx.
			Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
			Where("shopping_lists.user_id = ? AND shopping_lists.deleted_at IS NULL", userID).
			Where("items.bought = ? AND items.estimated_price > 0", false)
		if categoryID != nil {
			query = query.Where("items.category_id = ?", *categoryID)
		}

		var items []models.Item
		if err := query.Find(&items).Error; err != nil {
			return err
		}

		for i := range items {
			item := &items[i]
			item.EstimatedPrice *= factor
			item.RecomputeTotals()
			if err := tx.Model(item).Updates(map[string]interface{}{
				"estimated_price": item.EstimatedPrice,
				"total_estimated": item.TotalEstimated,
			}).Error; err != nil {
				return err
			}
			adjusted++
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return adjusted, nil
}

// equalCategory compares two optional category references.
func equalCategory(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
