package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"horizon/internal/apperr"
	"horizon/internal/middleware"
	"horizon/internal/model"
	"horizon/internal/service"
	"horizon/pkg/util"
)

// ExpenseHandler handles organization-scoped expense endpoints.
type ExpenseHandler struct {
	expenses *service.ExpenseService
}

func NewExpenseHandler(expenses *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// List handles GET /expenses.
func (h *ExpenseHandler) List(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	expenses, err := h.expenses.List(c.Request.Context(), org.ID, c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("", expenses))
}

// Get handles GET /expenses/:id.
func (h *ExpenseHandler) Get(c *gin.Context) {
	id, err := util.ParseObjectID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid expense id", string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	expense, err := h.expenses.Get(c.Request.Context(), org.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("", expense))
}

// Create handles POST /expenses.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var expense model.Expense
	if err := c.ShouldBindJSON(&expense); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)
	created, err := h.expenses.Create(c.Request.Context(), org.ID, user.ID, &expense)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.NewSuccessResponse("Expense created", created))
}

// Update handles PUT /expenses/:id.
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, err := util.ParseObjectID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid expense id", string(apperr.KindValidation)))
		return
	}
	var patch model.Expense
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	updated, err := h.expenses.Update(c.Request.Context(), org.ID, id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Expense updated", updated))
}

// Delete handles DELETE /expenses/:id.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, err := util.ParseObjectID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid expense id", string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	if err := h.expenses.Delete(c.Request.Context(), org.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Expense deleted", nil))
}

// Summary handles GET /expenses/summary.
func (h *ExpenseHandler) Summary(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	summary, err := h.expenses.Summary(c.Request.Context(), org.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("", summary))
}
