package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance holds the available and held funds of a single account.
//
// Available is the sum the account holder can spend right now. Hold is the
// sum earmarked for pending outgoing transfers. Both must never be negative;
// all mutations go through the ledger package.
type Balance struct {
	AccountID uuid.UUID `json:"accountId" gorm:"primaryKey"`
	Timestamps
	Available decimal.Decimal `json:"available" gorm:"type:DECIMAL(20,8)"`
	Hold      decimal.Decimal `json:"hold" gorm:"type:DECIMAL(20,8)"`

	// Version guards against lost updates: every mutation increments it and
	// is applied with a compare-and-swap on the previous value.
	Version int64 `json:"-"`
}
