package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "shoply/internal/errors"
	"shoply/internal/models"
	"shoply/internal/pagination"
	"shoply/internal/services"
)

// ListHandler handles shopping list requests.
type ListHandler struct {
	listService services.ListServicer
}

// NewListHandler creates a new ListHandler.
func NewListHandler(listService services.ListServicer) *ListHandler {
	return &ListHandler{listService: listService}
}

// CreateListRequest represents the request payload for creating a list.
type CreateListRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Notes string `json:"notes" binding:"max=1000"`
	Color string `json:"color" binding:"omitempty,hex_color"`
}

// UpdateListRequest represents the request payload for updating a list.
type UpdateListRequest struct {
	Name  string            `json:"name" binding:"omitempty,min=1,max=100"`
	Notes string            `json:"notes" binding:"omitempty,max=1000"`
	State *models.ListState `json:"state" binding:"omitempty,list_state"`
}

// DuplicateListRequest represents the request payload for duplicating a list.
type DuplicateListRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	CopyItems   bool   `json:"copy_items"`
	ResetBought bool   `json:"reset_bought"`
}

// CreateList handles the creation of a new shopping list.
// @Summary     Create a shopping list
// @Description Create a new shopping list in the draft state
// @Tags        lists
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateListRequest true "List details"
// @Success     201 {object} models.ShoppingList "List created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists [post]
func (h *ListHandler) CreateList(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	list, err := h.listService.CreateList(userID, req.Name, req.Notes, req.Color)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"list": list})
}

// GetLists handles listing the user's shopping lists.
// @Summary     Get shopping lists
// @Description Get a paginated list of shopping lists, optionally filtered by state
// @Tags        lists
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       state     query string false "Filter by state (draft/in_progress/completed/cancelled)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.ShoppingList] "Paginated lists"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists [get]
func (h *ListHandler) GetLists(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var state *models.ListState
	if v := c.Query("state"); v != "" {
		s := models.ListState(v)
		switch s {
		case models.ListStateDraft, models.ListStateInProgress, models.ListStateCompleted, models.ListStateCancelled:
			state = &s
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid list state"))
			return
		}
	}

	result, err := h.listService.GetUserLists(userID, page, state)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetList handles fetching a single list.
// @Summary     Get a shopping list
// @Description Get one shopping list by ID
// @Tags        lists
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "List ID"
// @Success     200 {object} models.ShoppingList "List"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "List not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists/{id} [get]
func (h *ListHandler) GetList(c *gin.Context) {
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

	list, err := h.listService.GetListByID(userID, listID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"list": list})
}

// GetListSummary handles fetching the derived aggregates of a list.
// @Summary     Get list summary
// @Description Get the recomputed aggregates of a list: item counts, completion rate, budget and spend
// @Tags        lists
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "List ID"
// @Success     200 {object} services.ListSummary "List summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "List not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists/{id}/summary [get]
func (h *ListHandler) GetListSummary(c *gin.Context) {
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

	summary, err := h.listService.GetListSummary(userID, listID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// UpdateList handles updating a list's name, notes or state.
// @Summary     Update a shopping list
// @Description Update a list's name, notes or state
// @Tags        lists
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "List ID"
// @Param       request body UpdateListRequest true "Fields to update"
// @Success     200 {object} models.ShoppingList "Updated list"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "List not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists/{id} [put]
func (h *ListHandler) UpdateList(c *gin.Context) {
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

	var req UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	list, err := h.listService.UpdateList(userID, listID, req.Name, req.Notes, req.State)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"list": list})
}

// DuplicateList handles duplicating a list.
// @Summary     Duplicate a shopping list
// @Description Copy a list into a new draft list, optionally with its items and with purchase state reset
// @Tags        lists
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "List ID"
// @Param       request body DuplicateListRequest true "Duplication options"
// @Success     201 {object} models.ShoppingList "New list"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "List not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists/{id}/duplicate [post]
func (h *ListHandler) DuplicateList(c *gin.Context) {
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

	var req DuplicateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	list, err := h.listService.DuplicateList(userID, listID, req.Name, req.CopyItems, req.ResetBought)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"list": list})
}

// DeleteList handles deleting a list and its items.
// @Summary     Delete a shopping list
// @Description Delete a list together with all of its items
// @Tags        lists
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "List ID"
// @Success     200 {object} map[string]string "List deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "List not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists/{id} [delete]
func (h *ListHandler) DeleteList(c *gin.Context) {
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

	if err := h.listService.DeleteList(userID, listID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "list deleted"})
}
