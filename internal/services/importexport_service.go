package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
)

// importExportService maps flat field records to and from item records. The
// byte-level CSV mechanics live at the HTTP boundary; this service only sees
// sequences of field maps.
type importExportService struct {
	db *gorm.DB
}

// NewImportExportService creates a new ImportExportServicer.
func NewImportExportService(db *gorm.DB) ImportExportServicer {
	return &importExportService{db: db}
}

// ImportItems creates (or, with override, updates) one item per row in the
// target list. A row without a Name is malformed: it is skipped, recorded in
// the result's row errors, and the import continues with the next row. Rows
// never leave the list half-imported: the whole batch runs in one
// transaction. Categories are resolved by name and auto-created when absent.
func (s *importExportService) ImportItems(userID, listID string, rows []map[string]string, override bool) (*ImportResult, error) {
	var listCount int64
	if err := s.db.Model(&models.ShoppingList{}).
		Where("id = ? AND user_id = ?", listID, userID).
		Count(&listCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if listCount == 0 {
		return nil, apperrors.ErrListNotFound
	}

	result := &ImportResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			if err := s.importRow(tx, userID, listID, row, override, result); err != nil {
				result.RowErrors = append(result.RowErrors, ImportRowError{
					Row:    i + 1,
					Reason: err.Error(),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// importRow maps one field record onto an item. Unknown or missing optional
// fields fall back to the item defaults.
func (s *importExportService) importRow(tx *gorm.DB, userID, listID string, row map[string]string, override bool, result *ImportResult) error {
	name := strings.TrimSpace(row["Name"])
	if name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidFile, "missing required Name field")
	}

	item := models.Item{
		ListID:   listID,
		Name:     name,
		Quantity: 1,
		Unit:     models.UnitPiece,
		Priority: models.PriorityMedium,
		Store:    strings.TrimSpace(row["Store"]),
		Notes:    row["Notes"],
	}

	if qty := strings.TrimSpace(row["Quantity"]); qty != "" {
		parsed, err := strconv.ParseFloat(qty, 64)
		if err != nil || parsed < 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidFile, fmt.Sprintf("invalid quantity %q", qty))
		}
		item.Quantity = parsed
	}
	if unit := strings.TrimSpace(row["Unit"]); unit != "" {
		item.Unit = models.Unit(unit)
	}
	if priority := strings.TrimSpace(row["Priority"]); priority != "" {
		item.Priority = models.Priority(priority)
	}
	if price := strings.TrimSpace(row["Estimated_Price"]); price != "" {
		parsed, err := strconv.ParseFloat(price, 64)
		if err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidFile, fmt.Sprintf("invalid estimated price %q", price))
		}
		item.EstimatedPrice = parsed
	}

	// Category resolution may create a new category. When the row fails
	// after that point, the category is removed again so a skipped row
	// leaves no trace.
	var createdCategory *models.Category
	if categoryName := strings.TrimSpace(row["Category"]); categoryName != "" {
		categoryID, created, err := s.resolveCategory(tx, userID, categoryName)
		if err != nil {
			return err
		}
		item.CategoryID = &categoryID
		createdCategory = created
	}
	discardCategory := func(rowErr error) error {
		if createdCategory != nil {
			if err := tx.Unscoped().Delete(createdCategory).Error; err != nil {
				return err
			}
		}
		return rowErr
	}

	item.RecomputeTotals()

	if override {
		var existing models.Item
		err := tx.Where("list_id = ? AND name = ?", listID, name).First(&existing).Error
		if err == nil {
			item.Base = existing.Base
			item.Bought = existing.Bought
			item.DateBought = existing.DateBought
			item.ActualPrice = existing.ActualPrice
			item.RecomputeTotals()
			if err := tx.Save(&item).Error; err != nil {
				return discardCategory(err)
			}
			result.Updated++
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return discardCategory(err)
		}
	}

	if err := tx.Create(&item).Error; err != nil {
		return discardCategory(err)
	}
	result.Created++
	return nil
}

// resolveCategory finds a category by exact name for the user, creating a
// root category of that name when none exists. When a category was created,
// it is returned so the caller can undo the creation if the row fails.
func (s *importExportService) resolveCategory(tx *gorm.DB, userID, name string) (string, *models.Category, error) {
	var category models.Category
	err := tx.Where("user_id = ? AND name = ?", userID, name).First(&category).Error
	if err == nil {
		return category.ID, nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, err
	}

	category = models.Category{
		UserID: userID,
		Name:   name,
	}
	if err := tx.Create(&category).Error; err != nil {
		return "", nil, err
	}
	category.CompleteName = category.Name
	category.Path = category.ID + "/"
	if err := tx.Model(&category).Updates(map[string]interface{}{
		"complete_name": category.CompleteName,
		"path":          category.Path,
	}).Error; err != nil {
		return "", nil, err
	}
	return category.ID, &category, nil
}

// ExportItems returns the user's items as flat field maps in the fixed
// export column order, optionally restricted to one list and optionally
// excluding already-bought items.
func (s *importExportService) ExportItems(userID string, listID *string, includeBought bool) ([]map[string]string, error) {
	query := s.db.Preload("Category").
		Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
		Where("shopping_lists.user_id = ? AND shopping_lists.deleted_at IS NULL", userID)
	if listID != nil {
		query = query.Where("items.list_id = ?", *listID)
	}
	if !includeBought {
		query = query.Where("items.bought = ?", false)
	}

	var items []models.Item
	if err := query.Order("items.created_at").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	records := make([]map[string]string, 0, len(items))
	for i := range items {
		item := &items[i]

		categoryName := ""
		if item.Category != nil {
			categoryName = item.Category.Name
		}
		bought := "No"
		if item.Bought {
			bought = "Yes"
		}

		records = append(records, map[string]string{
			"Name":            item.Name,
			"Quantity":        strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			"Unit":            string(item.Unit),
			"Category":        categoryName,
			"Priority":        string(item.Priority),
			"Estimated_Price": strconv.FormatFloat(item.EstimatedPrice, 'f', -1, 64),
			"Bought":          bought,
			"Store":           item.Store,
			"Notes":           item.Notes,
		})
	}
	return records, nil
}
