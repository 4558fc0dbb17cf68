package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
	"shoply/internal/pagination"
)

// listService owns shopping lists and their derived aggregates.
type listService struct {
	db *gorm.DB
}

// NewListService creates a new ListServicer.
func NewListService(db *gorm.DB) ListServicer {
	return &listService{db: db}
}

// CreateList creates a new shopping list in the draft state.
func (s *listService) CreateList(userID, name, notes, color string) (*models.ShoppingList, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "list name is required")
	}

	list := &models.ShoppingList{
		UserID: userID,
		Name:   name,
		State:  models.ListStateDraft,
		Notes:  notes,
		Color:  color,
	}
	if err := s.db.Create(list).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return list, nil
}

// GetUserLists returns a paginated list of the user's shopping lists, newest
// first, optionally filtered by state.
func (s *listService) GetUserLists(userID string, page pagination.PageRequest, state *models.ListState) (*pagination.PageResponse[models.ShoppingList], error) {
	page.Defaults()

	base := s.db.Model(&models.ShoppingList{}).Where("user_id = ?", userID)
	if state != nil {
		base = base.Where("state = ?", *state)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var lists []models.ShoppingList
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&lists).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(lists, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetListByID returns a list by ID if it belongs to the user.
func (s *listService) GetListByID(userID, listID string) (*models.ShoppingList, error) {
	var list models.ShoppingList
	if err := s.db.Where("id = ? AND user_id = ?", listID, userID).First(&list).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrListNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &list, nil
}

// UpdateList updates name, notes and state. State transitions are free-form
// user actions: any state may move to any other.
func (s *listService) UpdateList(userID, listID, name, notes string, state *models.ListState) (*models.ShoppingList, error) {
	list, err := s.GetListByID(userID, listID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if notes != "" {
		updates["notes"] = notes
	}
	if state != nil {
		updates["state"] = *state
	}
	if len(updates) > 0 {
		if err := s.db.Model(list).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return list, nil
}

// DeleteList deletes a list and all of its items. The list exclusively owns
// its items, so the delete cascades.
func (s *listService) DeleteList(userID, listID string) error {
	list, err := s.GetListByID(userID, listID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", listID).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		return tx.Delete(list).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetListSummary recomputes every derived attribute of a list in a single
// pass over its items. Nothing is cached between requests: the summary is
// always consistent with the current base facts.
//
// ActualSpent sums the estimated line totals of bought items; actual prices
// are reconciled against budgets, not against the list.
func (s *listService) GetListSummary(userID, listID string) (*ListSummary, error) {
	if _, err := s.GetListByID(userID, listID); err != nil {
		return nil, err
	}

	var items []models.Item
	if err := s.db.Where("list_id = ?", listID).Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &ListSummary{ListID: listID}
	for i := range items {
		summary.TotalItems++
		summary.TotalBudget += items[i].TotalEstimated
		if items[i].Bought {
			summary.CompletedItems++
			summary.ActualSpent += items[i].TotalEstimated
		}
	}
	if summary.TotalItems > 0 {
		summary.CompletionRate = float64(summary.CompletedItems) / float64(summary.TotalItems) * 100
	}
	summary.BudgetVariance = summary.TotalBudget - summary.ActualSpent
	return summary, nil
}

// DuplicateList copies a list into a new draft list, optionally copying its
// items. With resetBought the copies start unbought with no purchase date;
// otherwise purchase state and dates carry over.
func (s *listService) DuplicateList(userID, listID, newName string, copyItems, resetBought bool) (*models.ShoppingList, error) {
	original, err := s.GetListByID(userID, listID)
	if err != nil {
		return nil, err
	}
	if newName == "" {
		newName = original.Name + " (copy)"
	}

	newList := &models.ShoppingList{
		UserID: userID,
		Name:   newName,
		State:  models.ListStateDraft,
		Notes:  original.Notes,
		Color:  original.Color,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newList).Error; err != nil {
			return err
		}
		if !copyItems {
			return nil
		}

		var items []models.Item
		if err := tx.Where("list_id = ?", listID).Find(&items).Error; err != nil {
			return err
		}
		for i := range items {
			copy := items[i]
			copy.Base = models.Base{}
			copy.ListID = newList.ID
			if resetBought {
				copy.Bought = false
				copy.DateBought = nil
			}
			if err := tx.Create(&copy).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return newList, nil
}
