// Package controllers contains the HTTP handlers for the wallet backend.
package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/budget"
	"github.com/huyvuong1109/Financial-Management-Web/internal/httputil"
	"github.com/huyvuong1109/Financial-Management-Web/internal/ledger"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/huyvuong1109/Financial-Management-Web/internal/transaction"
	"github.com/huyvuong1109/Financial-Management-Web/internal/types"
	"gorm.io/gorm"
)

// timeNow is replaceable in tests.
var timeNow = time.Now

// Controller bundles the services the handlers delegate to.
type Controller struct {
	DB      *gorm.DB
	Engine  *transaction.Engine
	Tracker *budget.Tracker
	Ledger  *ledger.Ledger
}

// RegisterRoutes registers all v1 routes with the RouterGroup passed.
func (ctrl *Controller) RegisterRoutes(r *gin.RouterGroup) {
	ctrl.registerAccountRoutes(r.Group("/accounts"))
	ctrl.registerTransactionRoutes(r.Group("/transactions"))
	ctrl.registerBudgetRoutes(r.Group("/budgets"))
}

// status maps a domain error to the HTTP status of the response.
func status(err error) int {
	switch {
	case errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrResourceNotFound),
		errors.Is(err, transaction.ErrTransactionNotFound),
		errors.Is(err, budget.ErrBudgetNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, transaction.ErrInvalidStateTransition),
		errors.Is(err, budget.ErrBudgetAlreadyExists):
		return http.StatusConflict

	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, transaction.ErrSameAccount),
		errors.Is(err, transaction.ErrAmountNotPositive),
		errors.Is(err, transaction.ErrUnsupportedType),
		errors.Is(err, budget.ErrAmountNotPositive),
		errors.Is(err, budget.ErrThresholdOutOfRange),
		errors.Is(err, types.ErrInvalidPeriod),
		errors.Is(err, httputil.ErrInvalidUUID):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the error response for a domain error. Internal
// errors are logged and replaced with an opaque message.
func abortWithError(c *gin.Context, err error) {
	s := status(err)
	if s == http.StatusInternalServerError {
		httputil.InternalError(c, err)
		return
	}

	httputil.NewError(c, s, err)
}

// parseID parses the named URI parameter as a UUID.
func parseID(c *gin.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httputil.NewError(c, http.StatusBadRequest, httputil.ErrInvalidUUID)
		return uuid.Nil, httputil.ErrInvalidUUID
	}

	return id, nil
}

// parseMonthQuery parses the "month" query parameter, defaulting to the
// month of now when absent.
func parseMonthQuery(c *gin.Context) (types.Month, error) {
	value := c.Query("month")
	if value == "" {
		return types.MonthOf(timeNow()), nil
	}

	month, err := types.ParseMonth(value)
	if err != nil {
		httputil.NewError(c, http.StatusBadRequest, err)
		return types.Month{}, err
	}

	return month, nil
}
