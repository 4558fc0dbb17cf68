package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodDaily   BudgetPeriod = "daily"
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget represents an amount allocated to a date window, optionally scoped
// to a single category. A nil CategoryID means the budget covers spend in
// all categories.
type Budget struct {
	Base
	UserID     string       `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID *string      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name       string       `gorm:"not null" json:"name"`
	Amount     float64      `gorm:"not null" json:"amount"`
	Period     BudgetPeriod `gorm:"not null" json:"period"`
	StartDate  time.Time    `gorm:"not null" json:"start_date"`
	EndDate    time.Time    `gorm:"not null" json:"end_date"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
