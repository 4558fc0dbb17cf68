// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hex_color", validateHexColor)
		_ = v.RegisterValidation("item_unit", validateItemUnit)
		_ = v.RegisterValidation("item_priority", validateItemPriority)
		_ = v.RegisterValidation("list_state", validateListState)
		_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
		_ = v.RegisterValidation("bulk_operation", validateBulkOperation)
	}
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateItemUnit(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "unit", "kg", "g", "l", "ml", "pack", "bottle":
		return true
	}
	return false
}

func validateItemPriority(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "high", "medium", "low":
		return true
	}
	return false
}

func validateListState(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "draft", "in_progress", "completed", "cancelled":
		return true
	}
	return false
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "monthly", "yearly":
		return true
	}
	return false
}

func validateBulkOperation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "update_status", "update_category", "update_priority", "delete", "archive":
		return true
	}
	return false
}
