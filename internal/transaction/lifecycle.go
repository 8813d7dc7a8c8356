package transaction

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/ledger"
	"github.com/huyvuong1109/Financial-Management-Web/internal/metrics"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/huyvuong1109/Financial-Management-Web/internal/otp"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Verify checks a submitted code against a PENDING transaction.
//
// On a valid code the transaction moves to AWAITING_APPROVAL. A wrong code
// increments the attempt count and leaves the transaction PENDING until the
// third wrong attempt, which rolls back the held funds and marks it FAILED.
// An expired code rolls back and marks it EXPIRED. The returned Result is
// only meaningful when the error is nil.
//
// Concurrent submissions for the same transaction are serialized through
// the state guard, so the attempt count is incremented exactly once per
// submission.
func (e *Engine) Verify(ctx context.Context, id uuid.UUID, code string) (models.Transaction, otp.Result, error) {
	for i := 0; i < maxRetries; i++ {
		read, err := e.Get(id)
		if err != nil {
			return models.Transaction{}, 0, err
		}

		if read.Status != models.StatusPending {
			return read, 0, ErrInvalidStateTransition
		}

		working := read
		result := e.otp.Verify(&working, code)

		switch result {
		case otp.Valid:
			err = transition(e.db, read, map[string]any{
				"status":            models.StatusAwaitingApproval,
				"verification_code": "",
			})
		case otp.Invalid:
			err = transition(e.db, read, map[string]any{
				"attempt_count": working.AttemptCount,
			})
		case otp.Expired:
			err = e.rollback(read, models.StatusExpired, working.AttemptCount)
		case otp.LockedOut:
			err = e.rollback(read, models.StatusFailed, working.AttemptCount)
		}

		if errors.Is(err, errConflict) {
			continue
		}
		if err != nil {
			return models.Transaction{}, result, err
		}

		updated, err := e.Get(id)
		return updated, result, err
	}

	return models.Transaction{}, 0, errConflict
}

// rollback releases the held funds, moves the transaction to the terminal
// status and appends the history record, atomically.
func (e *Engine) rollback(read models.Transaction, to models.TransactionStatus, attempts int) error {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		err := transition(tx, read, map[string]any{
			"status":            to,
			"verification_code": "",
			"attempt_count":     attempts,
		})
		if err != nil {
			return err
		}

		err = ledger.New(tx).ReleaseToAvailable(read.FromAccountID, read.Amount)
		if err != nil {
			return err
		}

		read.Status = to
		return appendHistory(tx, read)
	})
	if err != nil {
		return err
	}

	metrics.TransactionsSettled.WithLabelValues(string(read.Type), string(to)).Inc()
	return nil
}

// Approve finalizes a transfer that passed verification: the held funds are
// settled to the payee and the history record is written. The budget check
// and the payment-record notification run after the settlement committed
// and can never unwind it.
func (e *Engine) Approve(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	var approved models.Transaction

	err := e.retryState(func() error {
		read, err := e.Get(id)
		if err != nil {
			return err
		}

		if read.Status != models.StatusAwaitingApproval {
			return ErrInvalidStateTransition
		}

		err = e.db.Transaction(func(tx *gorm.DB) error {
			err := transition(tx, read, map[string]any{"status": models.StatusApproved})
			if err != nil {
				return err
			}

			err = ledger.New(tx).SettleToCounterparty(read.FromAccountID, read.ToAccountID, read.Amount)
			if err != nil {
				return err
			}

			read.Status = models.StatusApproved
			return appendHistory(tx, read)
		})
		if err != nil {
			return err
		}

		approved = read
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	metrics.TransactionsSettled.WithLabelValues(string(approved.Type), string(models.StatusApproved)).Inc()
	e.afterSettlement(ctx, approved, true)

	return approved, nil
}

// Reject rolls back a transfer that passed verification: the held funds
// return to the payer and the history record is written.
func (e *Engine) Reject(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	var rejected models.Transaction

	err := e.retryState(func() error {
		read, err := e.Get(id)
		if err != nil {
			return err
		}

		if read.Status != models.StatusAwaitingApproval {
			return ErrInvalidStateTransition
		}

		err = e.db.Transaction(func(tx *gorm.DB) error {
			err := transition(tx, read, map[string]any{"status": models.StatusRejected})
			if err != nil {
				return err
			}

			err = ledger.New(tx).ReleaseToAvailable(read.FromAccountID, read.Amount)
			if err != nil {
				return err
			}

			read.Status = models.StatusRejected
			return appendHistory(tx, read)
		})
		if err != nil {
			return err
		}

		rejected = read
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	metrics.TransactionsSettled.WithLabelValues(string(rejected.Type), string(models.StatusRejected)).Inc()
	e.afterSettlement(ctx, rejected, false)

	return rejected, nil
}

// RecordImmediate records a deposit or withdrawal. These have no hold phase:
// the balance is mutated directly and the transaction settles as APPROVED.
func (e *Engine) RecordImmediate(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, transactionType models.TransactionType, categoryID *uuid.UUID) (models.Transaction, error) {
	if !amount.IsPositive() {
		return models.Transaction{}, ErrAmountNotPositive
	}

	if transactionType != models.TypeDeposit && transactionType != models.TypeWithdrawal {
		return models.Transaction{}, ErrUnsupportedType
	}

	exists, err := models.AccountExists(e.db, accountID)
	if err != nil {
		return models.Transaction{}, err
	}
	if !exists {
		return models.Transaction{}, models.ErrAccountNotFound
	}

	if categoryID != nil {
		owned, err := models.CategoryBelongsTo(e.db, *categoryID, accountID)
		if err != nil {
			return models.Transaction{}, err
		}
		if !owned {
			return models.Transaction{}, models.ErrResourceNotFound
		}
	}

	transaction := models.Transaction{
		Amount:     amount,
		Type:       transactionType,
		Status:     models.StatusApproved,
		CategoryID: categoryID,
	}
	if transactionType == models.TypeDeposit {
		transaction.ToAccountID = accountID
	} else {
		transaction.FromAccountID = accountID
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		led := ledger.New(tx)

		var err error
		if transactionType == models.TypeDeposit {
			err = led.CreditExternal(accountID, amount)
		} else {
			err = led.DebitExternal(accountID, amount)
		}
		if err != nil {
			return err
		}

		err = tx.Create(&transaction).Error
		if err != nil {
			return err
		}

		return appendHistory(tx, transaction)
	})
	if err != nil {
		return models.Transaction{}, err
	}

	metrics.TransactionsSettled.WithLabelValues(string(transactionType), string(models.StatusApproved)).Inc()

	// Withdrawals are spend and can cross a budget threshold; deposits cannot.
	e.afterSettlement(ctx, transaction, transactionType == models.TypeWithdrawal)

	return transaction, nil
}

// afterSettlement runs the decoupled side effects of a settled transaction.
// Failures here are logged as degraded-mode warnings; the settlement is
// already committed and is never reversed because a side effect failed.
func (e *Engine) afterSettlement(ctx context.Context, transaction models.Transaction, checkBudgets bool) {
	if checkBudgets && e.budgets != nil {
		err := e.budgets.CheckAndSendAlerts(ctx, transaction.FromAccountID)
		if err != nil {
			log.Warn().Err(err).
				Str("transaction", transaction.ID.String()).
				Msg("budget check after settlement failed, continuing degraded")
		}
	}

	if e.payments != nil {
		e.payments.NotifyPaymentRecorded(transaction.ID, transaction.FromAccountID, transaction.ToAccountID, transaction.Amount)
	}
}

// retryState runs op until it succeeds or fails with anything but a state
// conflict.
func (e *Engine) retryState(op func() error) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = op()
		if !errors.Is(err, errConflict) {
			return err
		}
	}

	return err
}
