// Package transaction implements the state machine that moves money between
// wallet accounts.
//
// A transfer walks PENDING → AWAITING_APPROVAL → APPROVED or REJECTED, with
// EXPIRED and FAILED as rollback terminals out of PENDING. No transition is
// defined out of a terminal state. Funds are held at create time, before the
// one-time code is confirmed: this blocks double-spends during the
// confirmation window at the cost of temporarily locking funds that may roll
// back.
package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/ledger"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/huyvuong1109/Financial-Management-Web/internal/notify"
	"github.com/huyvuong1109/Financial-Management-Web/internal/otp"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrTransactionNotFound is returned when no transaction exists for the ID.
	ErrTransactionNotFound = errors.New("there is no transaction for the ID you specified")

	// ErrInvalidStateTransition is returned when the transaction is not in a
	// state that allows the requested operation.
	ErrInvalidStateTransition = errors.New("the transaction state does not allow this operation")

	// ErrSameAccount is returned for transfers where payer and payee are identical.
	ErrSameAccount = errors.New("cannot transfer to the same account")

	// ErrAmountNotPositive is returned when the amount is zero or negative.
	ErrAmountNotPositive = errors.New("the amount must be larger than zero")

	// ErrUnsupportedType is returned when recording an immediate transaction
	// of a type that requires the confirmation flow.
	ErrUnsupportedType = errors.New("only deposits and withdrawals can be recorded immediately")

	// errConflict signals a lost state race; the operation re-reads and retries.
	errConflict = errors.New("transaction version conflict")
)

const maxRetries = 5

// CodeSender delivers a verification code out-of-band. The call is
// fire-and-forget; implementations log failures and never report them back.
type CodeSender interface {
	SendCode(email, code string)
}

// BudgetEvaluator re-checks an account's budgets after settled spend. The
// engine calls it best-effort after settlement; a returned error is logged
// and never unwinds the settlement.
type BudgetEvaluator interface {
	CheckAndSendAlerts(ctx context.Context, accountID uuid.UUID) error
}

// Engine orchestrates the transaction lifecycle.
type Engine struct {
	db       *gorm.DB
	otp      *otp.Verifier
	codes    CodeSender
	budgets  BudgetEvaluator
	payments notify.PaymentRecorder
}

// NewEngine returns an Engine using the given collaborators.
func NewEngine(db *gorm.DB, verifier *otp.Verifier, codes CodeSender, budgets BudgetEvaluator, payments notify.PaymentRecorder) *Engine {
	return &Engine{
		db:       db,
		otp:      verifier,
		codes:    codes,
		budgets:  budgets,
		payments: payments,
	}
}

// Get returns the transaction with the ID.
func (e *Engine) Get(id uuid.UUID) (models.Transaction, error) {
	var transaction models.Transaction

	err := e.db.First(&transaction, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Transaction{}, ErrTransactionNotFound
	}

	return transaction, err
}

// ListAwaitingApproval returns all transactions waiting for an approver,
// oldest first.
func (e *Engine) ListAwaitingApproval() ([]models.Transaction, error) {
	var transactions []models.Transaction

	err := e.db.
		Where("status = ?", models.StatusAwaitingApproval).
		Order("created_at").
		Find(&transactions).Error

	return transactions, err
}

// History returns the settled transaction history of an account, newest first.
func (e *Engine) History(accountID uuid.UUID) ([]models.TransactionHistory, error) {
	return models.HistoryFor(e.db, accountID)
}

// Create starts a transfer: it validates the request, holds the amount on
// the payer's balance, persists the transaction in PENDING and sends the
// verification code to the payer.
func (e *Engine) Create(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, categoryID *uuid.UUID) (models.Transaction, error) {
	if fromAccountID == toAccountID {
		return models.Transaction{}, ErrSameAccount
	}

	if !amount.IsPositive() {
		return models.Transaction{}, ErrAmountNotPositive
	}

	var from models.Account
	err := e.db.First(&from, "id = ?", fromAccountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Transaction{}, models.ErrAccountNotFound
	} else if err != nil {
		return models.Transaction{}, err
	}

	exists, err := models.AccountExists(e.db, toAccountID)
	if err != nil {
		return models.Transaction{}, err
	}
	if !exists {
		return models.Transaction{}, models.ErrAccountNotFound
	}

	if categoryID != nil {
		owned, err := models.CategoryBelongsTo(e.db, *categoryID, fromAccountID)
		if err != nil {
			return models.Transaction{}, err
		}
		if !owned {
			return models.Transaction{}, models.ErrResourceNotFound
		}
	}

	transaction := models.Transaction{
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		Amount:        amount,
		Type:          models.TypeTransfer,
		Status:        models.StatusPending,
		CategoryID:    categoryID,
	}
	code := e.otp.Issue(&transaction)

	err = e.db.Transaction(func(tx *gorm.DB) error {
		err := ledger.New(tx).Hold(fromAccountID, amount)
		if err != nil {
			return err
		}

		return tx.Create(&transaction).Error
	})
	if err != nil {
		return models.Transaction{}, err
	}

	e.codes.SendCode(from.Email, code)

	return transaction, nil
}

// appendHistory writes the immutable history record for a transaction that
// reached a terminal state.
func appendHistory(tx *gorm.DB, transaction models.Transaction) error {
	return tx.Create(&models.TransactionHistory{
		ID:            transaction.ID,
		FromAccountID: transaction.FromAccountID,
		ToAccountID:   transaction.ToAccountID,
		Amount:        transaction.Amount,
		Type:          transaction.Type,
		Status:        transaction.Status,
		CategoryID:    transaction.CategoryID,
		CompletedAt:   time.Now().In(time.UTC),
	}).Error
}

// transition applies updates to the transaction guarded by the status and
// attempt count it was read at. This serializes concurrent operations on
// the same transaction: the loser of a race gets errConflict and re-reads.
func transition(tx *gorm.DB, read models.Transaction, updates map[string]any) error {
	result := tx.Model(&models.Transaction{}).
		Where("id = ? AND status = ? AND attempt_count = ?", read.ID, read.Status, read.AttemptCount).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errConflict
	}

	return nil
}
