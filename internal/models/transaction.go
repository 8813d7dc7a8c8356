package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType is the kind of money movement a transaction represents.
type TransactionType string

const (
	TypeTransfer   TransactionType = "TRANSFER"
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
)

// TransactionStatus is the state of a transaction in its lifecycle.
type TransactionStatus string

const (
	StatusPending          TransactionStatus = "PENDING"
	StatusAwaitingApproval TransactionStatus = "AWAITING_APPROVAL"
	StatusApproved         TransactionStatus = "APPROVED"
	StatusRejected         TransactionStatus = "REJECTED"
	StatusExpired          TransactionStatus = "EXPIRED"
	StatusFailed           TransactionStatus = "FAILED"
)

// Terminal reports whether no further transition is defined out of the status.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusExpired, StatusFailed:
		return true
	}

	return false
}

// Transaction represents a money movement between two wallet accounts.
//
// Transactions are created by the transaction engine, mutated only by it,
// and never deleted: they are retained for audit.
type Transaction struct {
	DefaultModel
	FromAccountID    uuid.UUID         `json:"fromAccountId"`
	ToAccountID      uuid.UUID         `json:"toAccountId"`
	Amount           decimal.Decimal   `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Type             TransactionType   `json:"type"`
	Status           TransactionStatus `json:"status"`
	CategoryID       *uuid.UUID        `json:"categoryId,omitempty"`
	VerificationCode string            `json:"-"`
	ExpiresAt        time.Time         `json:"expiresAt,omitempty"`
	AttemptCount     int               `json:"attemptCount"`
}

// AfterFind updates the timestamps to use UTC as timezone, not +0000.
// We already store them in UTC, but reading them back from sqlite
// returns them as +0000.
func (t *Transaction) AfterFind(_ *gorm.DB) error {
	t.ExpiresAt = t.ExpiresAt.In(time.UTC)
	return nil
}

// BeforeSave sets the timezone for ExpiresAt to UTC.
func (t *Transaction) BeforeSave(_ *gorm.DB) error {
	t.ExpiresAt = t.ExpiresAt.In(time.UTC)
	return nil
}

// TransactionHistory is the append-only record of a transaction that reached
// a terminal state. Rows are immutable after insert.
type TransactionHistory struct {
	ID uuid.UUID `json:"id" gorm:"primaryKey"` // same ID as the transaction
	Timestamps
	FromAccountID uuid.UUID         `json:"fromAccountId"`
	ToAccountID   uuid.UUID         `json:"toAccountId"`
	Amount        decimal.Decimal   `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	CategoryID    *uuid.UUID        `json:"categoryId,omitempty"`
	CompletedAt   time.Time         `json:"completedAt"`
}

// HistoryFor returns the transaction history as seen by one account,
// newest first.
func HistoryFor(db *gorm.DB, accountID uuid.UUID) ([]TransactionHistory, error) {
	var history []TransactionHistory

	err := db.
		Where("from_account_id = ?", accountID).
		Or("to_account_id = ?", accountID).
		Order("completed_at DESC").
		Find(&history).Error

	return history, err
}
