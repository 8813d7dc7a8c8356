package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/budget"
	"github.com/huyvuong1109/Financial-Management-Web/internal/httputil"
	"github.com/huyvuong1109/Financial-Management-Web/internal/types"
	"github.com/shopspring/decimal"
)

func (ctrl *Controller) registerBudgetRoutes(r *gin.RouterGroup) {
	r.POST("", ctrl.CreateBudget)
	r.GET("/:id", ctrl.GetBudget)
	r.PATCH("/:id", ctrl.UpdateBudget)
	r.DELETE("/:id", ctrl.DeleteBudget)
	r.GET("/:id/progress", ctrl.GetBudgetProgress)
}

// BudgetEditable are the values used to create a budget. A nil categoryId
// creates the total budget for the month.
type BudgetEditable struct {
	AccountID      uuid.UUID       `json:"accountId" binding:"required"`
	CategoryID     *uuid.UUID      `json:"categoryId"`
	Month          string          `json:"month" binding:"required" example:"2025-06"`
	BudgetAmount   decimal.Decimal `json:"budgetAmount" binding:"required"`
	AlertThreshold int             `json:"alertThreshold"`
}

// CreateBudget creates a budget for an account, category and month.
func (ctrl *Controller) CreateBudget(c *gin.Context) {
	var editable BudgetEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	month, err := types.ParseMonth(editable.Month)
	if err != nil {
		abortWithError(c, err)
		return
	}

	created, err := ctrl.Tracker.Create(budget.CreateParams{
		AccountID:      editable.AccountID,
		CategoryID:     editable.CategoryID,
		Month:          month,
		BudgetAmount:   editable.BudgetAmount,
		AlertThreshold: editable.AlertThreshold,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetBudget returns the budget with the ID.
func (ctrl *Controller) GetBudget(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	found, err := ctrl.Tracker.Get(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

// BudgetUpdate are the editable values of a budget. Omitted fields stay
// unchanged; an edit re-arms the alert flags.
type BudgetUpdate struct {
	BudgetAmount   *decimal.Decimal `json:"budgetAmount"`
	AlertThreshold *int             `json:"alertThreshold"`
}

// UpdateBudget edits the budget amount and/or alert threshold.
func (ctrl *Controller) UpdateBudget(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	var update BudgetUpdate
	if httputil.BindData(c, &update) != nil {
		return
	}

	updated, err := ctrl.Tracker.Update(id, budget.UpdateParams{
		BudgetAmount:   update.BudgetAmount,
		AlertThreshold: update.AlertThreshold,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteBudget removes the budget.
func (ctrl *Controller) DeleteBudget(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	err = ctrl.Tracker.Delete(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetBudgetProgress returns the derived spending progress for the budget.
func (ctrl *Controller) GetBudgetProgress(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	progress, err := ctrl.Tracker.Progress(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetBudgets lists the budgets of the account, optionally for one month.
func (ctrl *Controller) GetBudgets(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	var month *types.Month
	if value := c.Query("month"); value != "" {
		parsed, err := types.ParseMonth(value)
		if err != nil {
			abortWithError(c, err)
			return
		}
		month = &parsed
	}

	budgets, err := ctrl.Tracker.List(id, month)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budgets)
}

// GetBudgetSummary aggregates the budgets of the account for a month.
func (ctrl *Controller) GetBudgetSummary(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	month, err := parseMonthQuery(c)
	if err != nil {
		return
	}

	summary, err := ctrl.Tracker.MonthlySummary(id, month)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// EvaluateBudgets re-checks the budgets of the account for a month and
// fires any pending threshold alerts.
func (ctrl *Controller) EvaluateBudgets(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	month, err := parseMonthQuery(c)
	if err != nil {
		return
	}

	err = ctrl.Tracker.Evaluate(c.Request.Context(), id, month)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
