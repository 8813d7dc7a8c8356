package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huyvuong1109/Financial-Management-Web/internal/httputil"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
)

func (ctrl *Controller) registerAccountRoutes(r *gin.RouterGroup) {
	r.POST("", ctrl.CreateAccount)
	r.GET("/:id", ctrl.GetAccount)
	r.GET("/:id/balance", ctrl.GetBalance)
	r.GET("/:id/history", ctrl.GetHistory)
	r.GET("/:id/alerts", ctrl.GetAlerts)
	r.POST("/:id/categories", ctrl.CreateCategory)
	r.GET("/:id/categories", ctrl.GetCategories)
	r.GET("/:id/budgets", ctrl.GetBudgets)
	r.GET("/:id/budgets/summary", ctrl.GetBudgetSummary)
	r.POST("/:id/budgets/evaluate", ctrl.EvaluateBudgets)
}

// AccountEditable are the values used to create an account.
type AccountEditable struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// CreateAccount creates a new account.
func (ctrl *Controller) CreateAccount(c *gin.Context) {
	var editable AccountEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	account := models.Account{Name: editable.Name, Email: editable.Email}
	err := ctrl.DB.Create(&account).Error
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// GetAccount returns the account with the ID.
func (ctrl *Controller) GetAccount(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	var account models.Account
	err = ctrl.DB.First(&account, "id = ?", id).Error
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// GetBalance returns the available and hold balances of the account.
func (ctrl *Controller) GetBalance(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	exists, err := models.AccountExists(ctrl.DB, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !exists {
		abortWithError(c, models.ErrAccountNotFound)
		return
	}

	balance, err := ctrl.Ledger.Get(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// GetHistory returns the settled transaction history of the account.
func (ctrl *Controller) GetHistory(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	history, err := ctrl.Engine.History(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// GetAlerts returns the persisted budget alerts of the account, newest first.
func (ctrl *Controller) GetAlerts(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	var alerts []models.BudgetAlert
	err = ctrl.DB.
		Where("account_id = ?", id).
		Order("created_at DESC").
		Find(&alerts).Error
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, alerts)
}

// CategoryEditable are the values used to create a category.
type CategoryEditable struct {
	Name string `json:"name" binding:"required"`
}

// CreateCategory creates a spending category for the account.
func (ctrl *Controller) CreateCategory(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	var editable CategoryEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	exists, err := models.AccountExists(ctrl.DB, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !exists {
		abortWithError(c, models.ErrAccountNotFound)
		return
	}

	category := models.Category{AccountID: id, Name: editable.Name}
	err = ctrl.DB.Create(&category).Error
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// GetCategories returns the categories of the account.
func (ctrl *Controller) GetCategories(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	var categories []models.Category
	err = ctrl.DB.Where("account_id = ?", id).Order("name").Find(&categories).Error
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}
