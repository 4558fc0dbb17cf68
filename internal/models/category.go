package models

import "strings"

// Category represents a hierarchical shopping category. Categories form a
// forest: each category has an optional parent and any number of children.
type Category struct {
	Base
	UserID      string  `gorm:"type:uuid;not null" json:"user_id"`
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
	ParentID    *string `gorm:"type:uuid" json:"parent_id,omitempty"`

	// CompleteName is the display name composed from all ancestors,
	// e.g. "Food / Dairy / Cheese". Maintained by the category service on
	// create, rename and reparent.
	CompleteName string `gorm:"index" json:"complete_name"`

	// Path is the materialized path: the slash-terminated sequence of
	// ancestor ids followed by this category's own id ("a/b/c/"). Subtree
	// queries are prefix matches on this column instead of recursive walks.
	Path string `gorm:"index" json:"-"`

	// Relationships
	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Items    []Item     `gorm:"foreignKey:CategoryID" json:"items,omitempty"`
	Budgets  []Budget   `gorm:"foreignKey:CategoryID" json:"budgets,omitempty"`
}

// IsDescendantOf reports whether the category sits below other in the tree.
// A category is not a descendant of itself.
func (c *Category) IsDescendantOf(other *Category) bool {
	if c.ID == other.ID {
		return false
	}
	return strings.HasPrefix(c.Path, other.Path)
}
