package models

import "time"

// Unit represents the unit of measurement for an item quantity
type Unit string

const (
	UnitPiece  Unit = "unit"
	UnitKg     Unit = "kg"
	UnitGram   Unit = "g"
	UnitLitre  Unit = "l"
	UnitMl     Unit = "ml"
	UnitPack   Unit = "pack"
	UnitBottle Unit = "bottle"
)

// Priority represents the purchase priority of an item
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Item represents a single purchasable entry within a shopping list
type Item struct {
	Base
	ListID         string     `gorm:"type:uuid;not null;index" json:"list_id"`
	CategoryID     *string    `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name           string     `gorm:"not null" json:"name"`
	Quantity       float64    `gorm:"not null;default:1" json:"quantity"`
	Unit           Unit       `gorm:"not null;default:'unit'" json:"unit"`
	Priority       Priority   `gorm:"not null;default:'medium'" json:"priority"`
	EstimatedPrice float64    `json:"estimated_price"`
	ActualPrice    float64    `json:"actual_price"`
	Store          string     `json:"store"`
	Bought         bool       `gorm:"not null;default:false;index" json:"bought"`
	DateBought     *time.Time `json:"date_bought,omitempty"`
	Notes          string     `json:"notes"`

	// Derived monetary totals, kept in sync by RecomputeTotals whenever
	// quantity or either price changes.
	TotalEstimated float64 `json:"total_estimated"`
	TotalActual    float64 `json:"total_actual"`

	// Relationships
	List     ShoppingList `gorm:"foreignKey:ListID" json:"-"`
	Category *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// RecomputeTotals refreshes the derived totals from quantity and prices.
// It is a pure function of the three inputs and has no other side effects.
func (i *Item) RecomputeTotals() {
	i.TotalEstimated = i.Quantity * i.EstimatedPrice
	i.TotalActual = i.Quantity * i.ActualPrice
}
