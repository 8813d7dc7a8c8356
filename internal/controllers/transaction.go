package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/httputil"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/huyvuong1109/Financial-Management-Web/internal/otp"
	"github.com/shopspring/decimal"
)

func (ctrl *Controller) registerTransactionRoutes(r *gin.RouterGroup) {
	r.POST("", ctrl.CreateTransaction)
	r.GET("/awaiting-approval", ctrl.GetAwaitingApproval)
	r.GET("/:id", ctrl.GetTransaction)
	r.POST("/:id/verify", ctrl.VerifyTransaction)
	r.POST("/:id/approve", ctrl.ApproveTransaction)
	r.POST("/:id/reject", ctrl.RejectTransaction)
	r.POST("/deposit", ctrl.Deposit)
	r.POST("/withdraw", ctrl.Withdraw)
}

// TransactionEditable are the values used to create a transfer.
type TransactionEditable struct {
	FromAccountID uuid.UUID       `json:"fromAccountId" binding:"required"`
	ToAccountID   uuid.UUID       `json:"toAccountId" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	CategoryID    *uuid.UUID      `json:"categoryId"`
}

// CreateTransaction starts a transfer. The held amount is reserved
// immediately; the caller confirms with the mailed code afterwards.
func (ctrl *Controller) CreateTransaction(c *gin.Context) {
	var editable TransactionEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	transaction, err := ctrl.Engine.Create(c.Request.Context(),
		editable.FromAccountID, editable.ToAccountID, editable.Amount, editable.CategoryID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

// GetTransaction returns the transaction with the ID.
func (ctrl *Controller) GetTransaction(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	transaction, err := ctrl.Engine.Get(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// GetAwaitingApproval lists transactions waiting for an approver.
func (ctrl *Controller) GetAwaitingApproval(c *gin.Context) {
	transactions, err := ctrl.Engine.ListAwaitingApproval()
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// VerifyRequest carries the submitted verification code.
type VerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// VerifyResponse is the result of a code submission.
type VerifyResponse struct {
	Result      string             `json:"result"`
	Transaction models.Transaction `json:"transaction"`
}

// VerifyTransaction checks the submitted code against a pending transfer.
func (ctrl *Controller) VerifyTransaction(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	var request VerifyRequest
	if httputil.BindData(c, &request) != nil {
		return
	}

	transaction, result, err := ctrl.Engine.Verify(c.Request.Context(), id, request.Code)
	if err != nil {
		abortWithError(c, err)
		return
	}

	response := VerifyResponse{Result: result.String(), Transaction: transaction}
	if result == otp.Valid {
		c.JSON(http.StatusOK, response)
		return
	}

	// Wrong, expired or locked-out codes are caller mistakes.
	c.JSON(http.StatusBadRequest, response)
}

// ApproveTransaction settles a verified transfer.
func (ctrl *Controller) ApproveTransaction(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	transaction, err := ctrl.Engine.Approve(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// RejectTransaction rolls back a verified transfer.
func (ctrl *Controller) RejectTransaction(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		return
	}

	transaction, err := ctrl.Engine.Reject(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// ImmediateEditable are the values used to record a deposit or withdrawal.
type ImmediateEditable struct {
	AccountID  uuid.UUID       `json:"accountId" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	CategoryID *uuid.UUID      `json:"categoryId"`
}

// Deposit records an immediate deposit.
func (ctrl *Controller) Deposit(c *gin.Context) {
	ctrl.recordImmediate(c, models.TypeDeposit)
}

// Withdraw records an immediate withdrawal.
func (ctrl *Controller) Withdraw(c *gin.Context) {
	ctrl.recordImmediate(c, models.TypeWithdrawal)
}

func (ctrl *Controller) recordImmediate(c *gin.Context, transactionType models.TransactionType) {
	var editable ImmediateEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	transaction, err := ctrl.Engine.RecordImmediate(c.Request.Context(),
		editable.AccountID, editable.Amount, transactionType, editable.CategoryID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transaction)
}
