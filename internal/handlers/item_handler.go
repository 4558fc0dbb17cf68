package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
	"shoply/internal/pagination"
	"shoply/internal/services"
)

// ItemHandler handles item ledger requests.
type ItemHandler struct {
	itemService services.ItemServicer
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(itemService services.ItemServicer) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// ItemRequest represents the writable fields of an item.
type ItemRequest struct {
	Name           string          `json:"name" binding:"required,min=1,max=200"`
	Quantity       float64         `json:"quantity" binding:"omitempty,gt=0"`
	Unit           models.Unit     `json:"unit" binding:"omitempty,item_unit"`
	CategoryID     *string         `json:"category_id"`
	Priority       models.Priority `json:"priority" binding:"omitempty,item_priority"`
	EstimatedPrice float64         `json:"estimated_price" binding:"omitempty,gte=0"`
	ActualPrice    float64         `json:"actual_price" binding:"omitempty,gte=0"`
	Store          string          `json:"store" binding:"max=200"`
	Notes          string          `json:"notes" binding:"max=1000"`
}

// SetBoughtRequest toggles the purchase state of an item.
type SetBoughtRequest struct {
	Bought *bool `json:"bought" binding:"required"`
}

func (r ItemRequest) toInput() services.ItemInput {
	return services.ItemInput{
		Name:           r.Name,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		CategoryID:     r.CategoryID,
		Priority:       r.Priority,
		EstimatedPrice: r.EstimatedPrice,
		ActualPrice:    r.ActualPrice,
		Store:          r.Store,
		Notes:          r.Notes,
	}
}

// CreateItem handles adding an item to a list.
// @Summary     Add an item
// @Description Add an item to a shopping list
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string      true "List ID"
// @Param       request body ItemRequest true "Item details"
// @Success     201 {object} models.Item "Item created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "List or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists/{id}/items [post]
func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	listID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.itemService.CreateItem(userID, listID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// BatchItemsRequest creates several items in one call. Per-line fields win
// over the shared defaults.
type BatchItemsRequest struct {
	DefaultCategoryID *string         `json:"default_category_id"`
	DefaultUnit       models.Unit     `json:"default_unit" binding:"omitempty,item_unit"`
	DefaultPriority   models.Priority `json:"default_priority" binding:"omitempty,item_priority"`
	Items             []ItemRequest   `json:"items" binding:"required,min=1,dive"`
}

// BatchCreateItems handles adding several items to a list at once.
// @Summary     Add items in bulk
// @Description Add several items to a shopping list in one transactional call, with optional shared defaults for category, unit, and priority
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "List ID"
// @Param       request body BatchItemsRequest true "Items and defaults"
// @Success     201 {object} map[string]interface{} "Items created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "List or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists/{id}/items/batch [post]
func (h *ItemHandler) BatchCreateItems(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	listID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BatchItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	inputs := make([]services.ItemInput, 0, len(req.Items))
	for _, line := range req.Items {
		input := line.toInput()
		if input.CategoryID == nil {
			input.CategoryID = req.DefaultCategoryID
		}
		if input.Unit == "" {
			input.Unit = req.DefaultUnit
		}
		if input.Priority == "" {
			input.Priority = req.DefaultPriority
		}
		inputs = append(inputs, input)
	}

	items, err := h.itemService.CreateItems(userID, listID, inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"items": items, "created": len(items)})
}

// GetListItems handles listing the items of a list.
// @Summary     Get list items
// @Description Get a paginated list of items, highest priority first
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "List ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Item] "Paginated items"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "List not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists/{id}/items [get]
func (h *ItemHandler) GetListItems(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	listID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.itemService.GetListItems(userID, listID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetItem handles fetching a single item.
// @Summary     Get an item
// @Description Get one item by ID
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {object} models.Item "Item"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /items/{id} [get]
func (h *ItemHandler) GetItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	item, err := h.itemService.GetItemByID(userID, itemID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// UpdateItem handles updating an item.
// @Summary     Update an item
// @Description Update an item's fields; line totals are recomputed
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string      true "Item ID"
// @Param       request body ItemRequest true "Item details"
// @Success     200 {object} models.Item "Updated item"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /items/{id} [put]
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.itemService.UpdateItem(userID, itemID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// SetBought handles marking an item bought or unbought.
// @Summary     Toggle purchase state
// @Description Mark an item as bought (stamping the purchase date) or unbought (clearing it)
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true "Item ID"
// @Param       request body SetBoughtRequest true "Target state"
// @Success     200 {object} models.Item "Updated item"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /items/{id}/bought [post]
func (h *ItemHandler) SetBought(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetBoughtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.itemService.SetBought(userID, itemID, *req.Bought)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem handles deleting an item.
// @Summary     Delete an item
// @Description Delete one item from its list
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {object} map[string]string "Item deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.itemService.DeleteItem(userID, itemID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}
