package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
	"shoply/internal/pagination"
)

// categoryService owns the category tree: parent/child links, the
// materialized path and the composed display name.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category under an optional parent.
// Category names are unique across the whole tree of a user, not per parent.
func (s *categoryService) CreateCategory(userID, name, description, color string, parentID *string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateName
	}

	var parent *models.Category
	if parentID != nil {
		p, err := s.GetCategoryByID(userID, *parentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrCategoryNotFound) {
				return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
			}
			return nil, err
		}
		parent = p
	}

	category := &models.Category{
		UserID:      userID,
		Name:        name,
		Description: description,
		Color:       color,
		ParentID:    parentID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(category).Error; err != nil {
			return err
		}
		if parent != nil {
			category.CompleteName = parent.CompleteName + " / " + name
			category.Path = parent.Path + category.ID + "/"
		} else {
			category.CompleteName = name
			category.Path = category.ID + "/"
		}
		return tx.Model(category).Updates(map[string]interface{}{
			"complete_name": category.CompleteName,
			"path":          category.Path,
		}).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user,
// ordered by their composed display name.
func (s *categoryService) GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Order("complete_name").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// RenameCategory changes a category's name and rewrites the composed display
// name of the category and every descendant. Ancestors are untouched.
func (s *categoryService) RenameCategory(userID, categoryID, newName string) (*models.Category, error) {
	if newName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.Name == newName {
		return category, nil
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ? AND id <> ?", userID, newName, categoryID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateName
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		category.Name = newName
		if err := tx.Model(category).Update("name", newName).Error; err != nil {
			return err
		}
		return s.rebuildSubtree(tx, userID, category)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// UpdateCategory updates the cosmetic fields of a category.
func (s *categoryService) UpdateCategory(userID, categoryID, description, color string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if description != "" {
		updates["description"] = description
	}
	if color != "" {
		updates["color"] = color
	}
	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// ReparentCategory moves a category under a new parent (or to the root when
// newParentID is nil) and rewrites the materialized path and display name of
// the whole moved subtree. Moving a category under itself or one of its own
// descendants fails with CYCLE_DETECTED and leaves the tree unchanged.
func (s *categoryService) ReparentCategory(userID, categoryID string, newParentID *string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	if newParentID != nil {
		if *newParentID == categoryID {
			return nil, apperrors.ErrCycleDetected
		}
		parent, err := s.GetCategoryByID(userID, *newParentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrCategoryNotFound) {
				return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
			}
			return nil, err
		}
		if parent.IsDescendantOf(category) {
			return nil, apperrors.ErrCycleDetected
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		category.ParentID = newParentID
		if err := tx.Model(category).Update("parent_id", newParentID).Error; err != nil {
			return err
		}
		return s.rebuildSubtree(tx, userID, category)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// rebuildSubtree recomputes Path and CompleteName for a category and all of
// its descendants, walking the tree top-down from the category's new parent.
func (s *categoryService) rebuildSubtree(tx *gorm.DB, userID string, category *models.Category) error {
	if category.ParentID != nil {
		var parent models.Category
		if err := tx.Where("id = ? AND user_id = ?", *category.ParentID, userID).First(&parent).Error; err != nil {
			return err
		}
		category.Path = parent.Path + category.ID + "/"
		category.CompleteName = parent.CompleteName + " / " + category.Name
	} else {
		category.Path = category.ID + "/"
		category.CompleteName = category.Name
	}

	if err := tx.Model(&models.Category{}).Where("id = ?", category.ID).Updates(map[string]interface{}{
		"path":          category.Path,
		"complete_name": category.CompleteName,
	}).Error; err != nil {
		return err
	}

	var children []models.Category
	if err := tx.Where("user_id = ? AND parent_id = ?", userID, category.ID).Find(&children).Error; err != nil {
		return err
	}
	for i := range children {
		if err := s.rebuildSubtree(tx, userID, &children[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteCategory deletes a category. Deletion is rejected while the category
// has children or is still referenced by items or budgets; children must be
// reparented explicitly first.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	var childCount int64
	if err := s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&childCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if childCount > 0 {
		return apperrors.ErrCategoryHasChildren
	}

	var refCount int64
	if err := s.db.Model(&models.Item{}).Where("category_id = ?", categoryID).Count(&refCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if refCount == 0 {
		if err := s.db.Model(&models.Budget{}).Where("category_id = ?", categoryID).Count(&refCount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if refCount > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetCategoryItemCount counts items whose category is exactly this category.
// There is no subtree rollup here; use GetSubtreeItemCount for that.
func (s *categoryService) GetCategoryItemCount(userID, categoryID string) (int64, error) {
	if _, err := s.GetCategoryByID(userID, categoryID); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.Model(&models.Item{}).
		Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
		Where("shopping_lists.user_id = ? AND items.category_id = ? AND items.deleted_at IS NULL AND shopping_lists.deleted_at IS NULL", userID, categoryID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// GetSubtreeItemCount counts items in this category or any of its
// descendants, resolved with one prefix match on the materialized path.
func (s *categoryService) GetSubtreeItemCount(userID, categoryID string) (int64, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.db.Model(&models.Item{}).
		Joins("JOIN categories ON categories.id = items.category_id").
		Joins("JOIN shopping_lists ON shopping_lists.id = items.list_id").
		Where("shopping_lists.user_id = ? AND categories.path LIKE ? AND items.deleted_at IS NULL AND shopping_lists.deleted_at IS NULL AND categories.deleted_at IS NULL",
			userID, category.Path+"%").
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}
