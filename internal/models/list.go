package models

// ListState represents the lifecycle state of a shopping list. Transitions
// are plain user actions; any state may move to any other.
type ListState string

const (
	ListStateDraft      ListState = "draft"
	ListStateInProgress ListState = "in_progress"
	ListStateCompleted  ListState = "completed"
	ListStateCancelled  ListState = "cancelled"
)

// ShoppingList represents a named collection of items owned by one user.
// The list exclusively owns its items: deleting a list deletes them too.
type ShoppingList struct {
	Base
	UserID string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string    `gorm:"not null" json:"name"`
	State  ListState `gorm:"not null;default:'draft'" json:"state"`
	Notes  string    `json:"notes"`
	Color  string    `json:"color"`

	// Relationships
	Items []Item `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}
