package models

import (
	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultAlertThreshold is the percentage of budget spend at which a
// NEAR_LIMIT alert fires when no explicit threshold is configured.
const DefaultAlertThreshold = 80

// Budget is a spending limit for an account in a specific month.
//
// A nil CategoryID means the budget covers the account's total spend for the
// month. Spend is not stored on the budget; it is derived by summing the
// transaction history for the period, so it can never drift.
type Budget struct {
	DefaultModel
	AccountID      uuid.UUID       `json:"accountId" gorm:"uniqueIndex:budget_account_category_month"`
	CategoryID     *uuid.UUID      `json:"categoryId" gorm:"uniqueIndex:budget_account_category_month"`
	Month          types.Month     `json:"month" gorm:"uniqueIndex:budget_account_category_month"`
	BudgetAmount   decimal.Decimal `json:"budgetAmount" gorm:"type:DECIMAL(20,8)"`
	AlertThreshold int             `json:"alertThreshold"`

	// The alert flags are monotonic: once set they stay set until the budget
	// amount or threshold is edited, which re-arms both.
	AlertSent         bool `json:"alertSent"`
	ExceededAlertSent bool `json:"exceededAlertSent"`
}

// BeforeSave applies the default alert threshold.
func (b *Budget) BeforeSave(_ *gorm.DB) error {
	if b.AlertThreshold == 0 {
		b.AlertThreshold = DefaultAlertThreshold
	}

	return nil
}

// SpendingPercentage returns spent as a percentage of the budget amount,
// rounded to two decimal places. A zero budget amount yields zero.
func (b Budget) SpendingPercentage(spent decimal.Decimal) decimal.Decimal {
	if b.BudgetAmount.IsZero() {
		return decimal.Zero
	}

	return spent.Mul(decimal.NewFromInt(100)).DivRound(b.BudgetAmount, 2)
}
