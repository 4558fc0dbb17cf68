package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
	"shoply/internal/services"
)

// PlanningHandler handles historical spend projection and budget planning.
type PlanningHandler struct {
	planningService services.PlanningServicer
}

// NewPlanningHandler creates a new PlanningHandler.
func NewPlanningHandler(planningService services.PlanningServicer) *PlanningHandler {
	return &PlanningHandler{planningService: planningService}
}

// CreatePlanRequest distributes a target amount over category allocations.
type CreatePlanRequest struct {
	Target      float64               `json:"target" binding:"required,gt=0"`
	StartDate   time.Time             `json:"start_date" binding:"required"`
	Period      models.BudgetPeriod   `json:"period" binding:"required,budget_period"`
	Allocations []services.Allocation `json:"allocations" binding:"required,min=1,dive"`
}

// CreatePeriodBudgetRequest creates one budget from a start date and period.
type CreatePeriodBudgetRequest struct {
	Name      string              `json:"name" binding:"omitempty,min=1,max=100"`
	Amount    float64             `json:"amount" binding:"required,gt=0"`
	StartDate time.Time           `json:"start_date" binding:"required"`
	Period    models.BudgetPeriod `json:"period" binding:"required,budget_period"`
}

// parseMonths reads an optional positive months query parameter, default 3.
func parseMonths(c *gin.Context) (int, error) {
	months := 3
	if v := c.Query("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "months must be a positive integer")
		}
		months = parsed
	}
	return months, nil
}

// GetTrailingSpend handles querying historical spend.
// @Summary     Get trailing spend
// @Description Sum the actual spend of bought items over the trailing N months, optionally for one category
// @Tags        planning
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       months      query int    false "Trailing window in months (default 3)"
// @Param       category_id query string false "Restrict to one category"
// @Success     200 {object} map[string]float64 "Trailing spend"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planning/spend [get]
func (h *PlanningHandler) GetTrailingSpend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months, err := parseMonths(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var categoryID *string
	if v := c.Query("category_id"); v != "" {
		categoryID = &v
	}

	spend, err := h.planningService.TrailingSpend(userID, categoryID, months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": months, "spend": spend})
}

// SuggestBudget handles proposing a budget amount from history.
// @Summary     Suggest a budget
// @Description Propose a budget amount from the trailing monthly average plus a safety buffer
// @Tags        planning
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Trailing window in months (default 3)"
// @Success     200 {object} map[string]float64 "Suggested amount"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planning/suggest [get]
func (h *PlanningHandler) SuggestBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months, err := parseMonths(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	suggested, err := h.planningService.SuggestBudget(userID, months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": months, "suggested": suggested})
}

// GetPlanLines handles prefilling a category plan.
// @Summary     Get plan lines
// @Description Get one plan line per category, prefilled with its recent historical spend
// @Tags        planning
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} []services.PlanLine "Plan lines"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planning/lines [get]
func (h *PlanningHandler) GetPlanLines(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	lines, err := h.planningService.BuildPlanLines(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// CreatePlan handles turning category allocations into budgets.
// @Summary     Create a category plan
// @Description Create one budget per allocated category; the allocations must sum to the target amount
// @Tags        planning
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePlanRequest true "Plan details"
// @Success     201 {object} []models.Budget "Created budgets"
// @Failure     400 {object} ErrorResponse "Invalid input or allocation mismatch"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planning/plans [post]
func (h *PlanningHandler) CreatePlan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budgets, err := h.planningService.CreateCategoryPlan(userID, req.Target, req.StartDate, req.Period, req.Allocations)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"budgets": budgets})
}

// CreatePeriodBudget handles creating one budget from a period.
// @Summary     Create a period budget
// @Description Create a single budget whose end date is derived from its period
// @Tags        planning
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePeriodBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Created budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planning/budgets [post]
func (h *PlanningHandler) CreatePeriodBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePeriodBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.planningService.CreatePeriodBudget(userID, req.Name, req.Amount, req.StartDate, req.Period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}
