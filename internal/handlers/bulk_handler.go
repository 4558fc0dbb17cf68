package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
	"shoply/internal/services"
)

// BulkHandler handles bulk item mutations.
type BulkHandler struct {
	bulkService services.BulkServicer
}

// NewBulkHandler creates a new BulkHandler.
func NewBulkHandler(bulkService services.BulkServicer) *BulkHandler {
	return &BulkHandler{bulkService: bulkService}
}

// BulkRequest represents one bulk operation over a selected set of items.
type BulkRequest struct {
	Type       services.BulkOperationType `json:"type" binding:"required,bulk_operation"`
	ItemIDs    []string                   `json:"item_ids"`
	ListID     *string                    `json:"list_id"`
	All        bool                       `json:"all"`
	Bought     bool                       `json:"bought"`
	CategoryID *string                    `json:"category_id"`
	Priority   models.Priority            `json:"priority" binding:"omitempty,item_priority"`
}

// AdjustPricesRequest scales estimated prices of unbought items.
type AdjustPricesRequest struct {
	Percentage float64 `json:"percentage" binding:"required,gt=0,lte=100"`
	Increase   bool    `json:"increase"`
	CategoryID *string `json:"category_id"`
}

// Execute handles a bulk operation.
// @Summary     Execute a bulk operation
// @Description Apply one mutation (status, category, priority, delete or archive) across a selected set of items. Exactly one selector (item_ids, list_id or all) must be given.
// @Tags        bulk
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkRequest true "Bulk operation"
// @Success     200 {object} map[string]int "Number of items changed"
// @Failure     400 {object} ErrorResponse "Invalid input or missing target"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     422 {object} ErrorResponse "No matching items"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /items/bulk [post]
func (h *BulkHandler) Execute(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	changed, err := h.bulkService.Execute(userID, services.BulkOperation{
		Type:       req.Type,
		ItemIDs:    req.ItemIDs,
		ListID:     req.ListID,
		All:        req.All,
		Bought:     req.Bought,
		CategoryID: req.CategoryID,
		Priority:   req.Priority,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// AdjustPrices handles scaling estimated prices.
// @Summary     Adjust estimated prices
// @Description Scale the estimated price of every unbought priced item by a percentage, optionally within one category
// @Tags        bulk
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AdjustPricesRequest true "Adjustment"
// @Success     200 {object} map[string]int "Number of items adjusted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /items/adjust-prices [post]
func (h *BulkHandler) AdjustPrices(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AdjustPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	adjusted, err := h.bulkService.AdjustPrices(userID, req.Percentage, req.Increase, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"adjusted": adjusted})
}
