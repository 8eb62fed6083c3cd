package expenses

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/response"
)

// AddExpenseRequest is the body for POST /expenses.
type AddExpenseRequest struct {
	TripID      int64    `json:"trip_id" binding:"required,gt=0"`
	UserID      int64    `json:"user_id" binding:"required,gt=0"`
	Description string   `json:"description" binding:"required"`
	Amount      *float64 `json:"amount" binding:"required,gte=0"`
}

// UpdateExpenseRequest is the body for PUT /expenses/:expenseId.
type UpdateExpenseRequest struct {
	Description string   `json:"description" binding:"required"`
	Amount      *float64 `json:"amount" binding:"required,gte=0"`
}

// Handler handles expense HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an expenses handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Add POST /expenses
func (h *Handler) Add(c *gin.Context) {
	var req AddExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "missing required fields")
		return
	}
	e := &models.Expense{TripID: req.TripID, UserID: req.UserID, Description: req.Description, Amount: *req.Amount}
	if err := h.repo.Add(c.Request.Context(), e); err != nil {
		if errors.Is(err, ErrTripOrUserAbsent) {
			response.NotFound(c, err.Error())
			return
		}
		h.logger.Error("add expense", zap.Error(err), zap.Int64("trip_id", req.TripID))
		response.Internal(c, "failed to add expense")
		return
	}
	response.Created(c, "Expense added", e)
}

// ListByTrip GET /expenses/trip/:tripId
func (h *Handler) ListByTrip(c *gin.Context) {
	tripID, ok := param(c, "tripId", "invalid trip id")
	if !ok {
		return
	}
	list, err := h.repo.ListByTrip(c.Request.Context(), tripID)
	if err != nil {
		h.logger.Error("list expenses", zap.Error(err), zap.Int64("trip_id", tripID))
		response.Internal(c, "failed to fetch expenses")
		return
	}
	response.OK(c, list)
}

// Update PUT /expenses/:expenseId
func (h *Handler) Update(c *gin.Context) {
	id, ok := param(c, "expenseId", "invalid expense id")
	if !ok {
		return
	}
	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "missing fields for update")
		return
	}
	if err := h.repo.Update(c.Request.Context(), id, req.Description, *req.Amount); err != nil {
		h.fail(c, err, "update expense", id)
		return
	}
	response.Done(c, "Expense updated")
}

// Delete DELETE /expenses/:expenseId
func (h *Handler) Delete(c *gin.Context) {
	id, ok := param(c, "expenseId", "invalid expense id")
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "delete expense", id)
		return
	}
	response.Done(c, "Expense deleted")
}

func (h *Handler) fail(c *gin.Context, err error, op string, id int64) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	h.logger.Error(op, zap.Error(err), zap.Int64("expense_id", id))
	response.Internal(c, "failed to "+op)
}

func param(c *gin.Context, name, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, msg)
		return 0, false
	}
	return id, true
}
