// Package ledger owns the per-account available/hold balances.
//
// All balance mutations in the backend go through the primitives in this
// package. Mutations are applied with a compare-and-swap on a version
// column and retried on conflict, so two concurrent operations on the same
// account can never act on a stale balance. sqlite has no SELECT FOR
// UPDATE, the version guard gives the same serialization on every dialect.
package ledger

import (
	"errors"

	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientFunds is returned when an account's available balance
	// does not cover the requested amount.
	ErrInsufficientFunds = errors.New("the available balance does not cover the requested amount")

	// ErrInvariantViolation indicates ledger corruption, e.g. releasing more
	// hold than exists. It is a bug in a caller, never user-recoverable.
	ErrInvariantViolation = errors.New("ledger invariant violated")

	// errConflict signals a lost compare-and-swap race; the operation is
	// retried with fresh balances.
	errConflict = errors.New("balance version conflict")
)

// maxRetries bounds the compare-and-swap retry loop. Contention on a single
// account resolves within one or two rounds; hitting the bound means
// something is seriously wrong.
const maxRetries = 5

// Ledger performs atomic balance mutations against the database.
type Ledger struct {
	db *gorm.DB
}

// New returns a Ledger backed by the given database handle.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// retry runs op until it succeeds or fails with anything but a version
// conflict.
func retry(op func() error) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = op()
		if !errors.Is(err, errConflict) {
			return err
		}
	}

	return err
}

// swap applies the updates to the balance row guarded by the version the
// balance was read at. Returns errConflict if another mutation won the race.
func swap(tx *gorm.DB, balance models.Balance, updates map[string]any) error {
	updates["version"] = balance.Version + 1

	result := tx.Model(&models.Balance{}).
		Where("account_id = ? AND version = ?", balance.AccountID, balance.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errConflict
	}

	return nil
}

// fetch reads the balance row for an account.
func fetch(tx *gorm.DB, accountID uuid.UUID) (models.Balance, error) {
	var balance models.Balance
	err := tx.First(&balance, "account_id = ?", accountID).Error
	return balance, err
}

// fetchOrCreate is fetch, but initializes a zero balance for accounts that
// have never held funds.
func fetchOrCreate(tx *gorm.DB, accountID uuid.UUID) (models.Balance, error) {
	balance, err := fetch(tx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = models.Balance{
			AccountID: accountID,
			Available: decimal.Zero,
			Hold:      decimal.Zero,
		}
		err = tx.Create(&balance).Error
	}

	return balance, err
}

// Hold moves amount from the available balance to the hold balance,
// earmarking it for a pending transfer.
func (l *Ledger) Hold(accountID uuid.UUID, amount decimal.Decimal) error {
	return retry(func() error {
		balance, err := fetch(l.db, accountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInsufficientFunds
		} else if err != nil {
			return err
		}

		if balance.Available.LessThan(amount) {
			return ErrInsufficientFunds
		}

		return swap(l.db, balance, map[string]any{
			"available": balance.Available.Sub(amount),
			"hold":      balance.Hold.Add(amount),
		})
	})
}

// ReleaseToAvailable returns held funds to the available balance. This is
// the rollback path for expired, failed and rejected transfers.
func (l *Ledger) ReleaseToAvailable(accountID uuid.UUID, amount decimal.Decimal) error {
	return retry(func() error {
		balance, err := fetch(l.db, accountID)
		if err != nil {
			return err
		}

		if balance.Hold.LessThan(amount) {
			log.Error().
				Str("account", accountID.String()).
				Str("hold", balance.Hold.String()).
				Str("amount", amount.String()).
				Msg("release exceeds hold balance")
			return ErrInvariantViolation
		}

		return swap(l.db, balance, map[string]any{
			"available": balance.Available.Add(amount),
			"hold":      balance.Hold.Sub(amount),
		})
	})
}

// SettleToCounterparty finalizes a transfer by moving held funds from the
// payer to the payee's available balance. The payee balance is created at
// zero if it does not exist yet. Both accounts are updated in one database
// transaction, so the settlement applies atomically or not at all.
func (l *Ledger) SettleToCounterparty(payerID, payeeID uuid.UUID, amount decimal.Decimal) error {
	return retry(func() error {
		return l.db.Transaction(func(tx *gorm.DB) error {
			payer, err := fetch(tx, payerID)
			if err != nil {
				return err
			}

			if payer.Hold.LessThan(amount) {
				log.Error().
					Str("payer", payerID.String()).
					Str("hold", payer.Hold.String()).
					Str("amount", amount.String()).
					Msg("settlement exceeds hold balance")
				return ErrInvariantViolation
			}

			payee, err := fetchOrCreate(tx, payeeID)
			if err != nil {
				return err
			}

			err = swap(tx, payer, map[string]any{
				"hold": payer.Hold.Sub(amount),
			})
			if err != nil {
				return err
			}

			return swap(tx, payee, map[string]any{
				"available": payee.Available.Add(amount),
			})
		})
	})
}

// CreditExternal adds externally deposited funds to the available balance.
// Deposits have no hold phase and settle immediately.
func (l *Ledger) CreditExternal(accountID uuid.UUID, amount decimal.Decimal) error {
	return retry(func() error {
		balance, err := fetchOrCreate(l.db, accountID)
		if err != nil {
			return err
		}

		return swap(l.db, balance, map[string]any{
			"available": balance.Available.Add(amount),
		})
	})
}

// DebitExternal removes withdrawn funds from the available balance.
// Withdrawals have no hold phase and settle immediately.
func (l *Ledger) DebitExternal(accountID uuid.UUID, amount decimal.Decimal) error {
	return retry(func() error {
		balance, err := fetch(l.db, accountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInsufficientFunds
		} else if err != nil {
			return err
		}

		if balance.Available.LessThan(amount) {
			return ErrInsufficientFunds
		}

		return swap(l.db, balance, map[string]any{
			"available": balance.Available.Sub(amount),
		})
	})
}

// Get returns the balance for an account. Accounts that never held funds
// report zero balances.
func (l *Ledger) Get(accountID uuid.UUID) (models.Balance, error) {
	balance, err := fetch(l.db, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Balance{
			AccountID: accountID,
			Available: decimal.Zero,
			Hold:      decimal.Zero,
		}, nil
	}

	return balance, err
}
