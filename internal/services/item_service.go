package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
	"shoply/internal/pagination"
)

// itemService owns individual items and their derived monetary totals.
type itemService struct {
	db *gorm.DB
}

// NewItemService creates a new ItemServicer.
func NewItemService(db *gorm.DB) ItemServicer {
	return &itemService{db: db}
}

// CreateItem creates a new item inside one of the user's lists.
func (s *itemService) CreateItem(userID, listID string, input ItemInput) (*models.Item, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item name is required")
	}
	if input.Quantity < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must not be negative")
	}

	if err := s.checkList(userID, listID); err != nil {
		return nil, err
	}
	if err := s.checkCategory(userID, input.CategoryID); err != nil {
		return nil, err
	}

	item := newItem(listID, input)
	if err := s.db.Create(&item).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, nil
}

// CreateItems creates several items inside one list in a single transaction.
// Every input is validated up front; either all items are created or none.
func (s *itemService) CreateItems(userID, listID string, inputs []ItemInput) ([]models.Item, error) {
	if len(inputs) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one item is required")
	}
	if err := s.checkList(userID, listID); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(inputs))
	for _, input := range inputs {
		if input.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item name is required")
		}
		if input.Quantity < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must not be negative")
		}
		if err := s.checkCategory(userID, input.CategoryID); err != nil {
			return nil, err
		}
		items = append(items, newItem(listID, input))
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// newItem builds an item from its input, filling defaults and refreshing the
// derived totals.
func newItem(listID string, input ItemInput) models.Item {
	item := models.Item{
		ListID:         listID,
		CategoryID:     input.CategoryID,
		Name:           input.Name,
		Quantity:       input.Quantity,
		Unit:           input.Unit,
		Priority:       input.Priority,
		EstimatedPrice: input.EstimatedPrice,
		ActualPrice:    input.ActualPrice,
		Store:          input.Store,
		Notes:          input.Notes,
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Unit == "" {
		item.Unit = models.UnitPiece
	}
	if item.Priority == "" {
		item.Priority = models.PriorityMedium
	}
	item.RecomputeTotals()
	return item
}

// GetItemByID retrieves an item by ID, scoped to the owning user via the
// item's list.
func (s *itemService) GetItemByID(userID, itemID string) (*models.Item, error) {
	var item models.Item
	err := s.db.
		Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
		Where("items.id = ? AND shopping_lists.user_id = ? AND shopping_lists.deleted_at IS NULL", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, nil
}

// GetListItems retrieves a paginated list of items for one list, highest
// priority first.
func (s *itemService) GetListItems(userID, listID string, page pagination.PageRequest) (*pagination.PageResponse[models.Item], error) {
	page.Defaults()

	if err := s.checkList(userID, listID); err != nil {
		return nil, err
	}

	base := s.db.Model(&models.Item{}).Where("list_id = ?", listID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var items []models.Item
	if err := base.Preload("Category").
		Order("CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at").
		Scopes(pagination.Paginate(page)).Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateItem applies the given fields and refreshes the derived totals when
// quantity or either price changed.
func (s *itemService) UpdateItem(userID, itemID string, input ItemInput) (*models.Item, error) {
	item, err := s.GetItemByID(userID, itemID)
	if err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must not be negative")
	}
	if err := s.checkCategory(userID, input.CategoryID); err != nil {
		return nil, err
	}

	if input.Name != "" {
		item.Name = input.Name
	}
	if input.Unit != "" {
		item.Unit = input.Unit
	}
	if input.Priority != "" {
		item.Priority = input.Priority
	}
	item.Quantity = input.Quantity
	item.CategoryID = input.CategoryID
	item.EstimatedPrice = input.EstimatedPrice
	item.ActualPrice = input.ActualPrice
	item.Store = input.Store
	item.Notes = input.Notes
	item.RecomputeTotals()

	if err := s.db.Save(item).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return item, nil
}

// SetBought is the only legal way to flip an item's purchase state. Turning
// an item bought stamps DateBought with the current instant; turning it back
// clears the stamp. Setting the current state again is a no-op.
func (s *itemService) SetBought(userID, itemID string, bought bool) (*models.Item, error) {
	item, err := s.GetItemByID(userID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Bought == bought {
		return item, nil
	}

	item.Bought = bought
	if bought {
		now := time.Now()
		item.DateBought = &now
	} else {
		item.DateBought = nil
	}

	if err := s.db.Model(item).Select("bought", "date_bought").Updates(map[string]interface{}{
		"bought":      item.Bought,
		"date_bought": item.DateBought,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return item, nil
}

// DeleteItem removes an item permanently. The item disappears from every
// aggregate from this point on.
func (s *itemService) DeleteItem(userID, itemID string) error {
	item, err := s.GetItemByID(userID, itemID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(item).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// checkList verifies the list exists and belongs to the user.
func (s *itemService) checkList(userID, listID string) error {
	var count int64
	if err := s.db.Model(&models.ShoppingList{}).
		Where("id = ? AND user_id = ?", listID, userID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrListNotFound
	}
	return nil
}

// checkCategory verifies the optional category exists and belongs to the user.
func (s *itemService) checkCategory(userID string, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", *categoryID, userID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}
