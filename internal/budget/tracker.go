// Package budget tracks period spend against configured budgets and fires
// threshold alerts.
package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/alert"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/huyvuong1109/Financial-Management-Web/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrBudgetNotFound is returned when no budget exists for the ID.
	ErrBudgetNotFound = errors.New("there is no budget for the ID you specified")

	// ErrBudgetAlreadyExists is returned on a duplicate create for the same
	// account, category and month.
	ErrBudgetAlreadyExists = errors.New("a budget already exists for this account, category and month")

	// ErrAmountNotPositive is returned when the budget amount is zero or negative.
	ErrAmountNotPositive = errors.New("the budget amount must be larger than zero")

	// ErrThresholdOutOfRange is returned when the alert threshold is not a
	// percentage between 1 and 100.
	ErrThresholdOutOfRange = errors.New("the alert threshold must be between 1 and 100")
)

// Tracker evaluates budgets against the settled transaction history and
// dispatches threshold alerts with de-duplication.
type Tracker struct {
	db         *gorm.DB
	dispatcher alert.Dispatcher
	now        func() time.Time
}

// NewTracker returns a Tracker backed by db and publishing through dispatcher.
func NewTracker(db *gorm.DB, dispatcher alert.Dispatcher) *Tracker {
	return &Tracker{db: db, dispatcher: dispatcher, now: time.Now}
}

// CreateParams are the values needed to create a budget. A nil CategoryID
// creates the total budget for the month.
type CreateParams struct {
	AccountID      uuid.UUID
	CategoryID     *uuid.UUID
	Month          types.Month
	BudgetAmount   decimal.Decimal
	AlertThreshold int
}

// Create stores a new budget.
func (t *Tracker) Create(params CreateParams) (models.Budget, error) {
	if !params.BudgetAmount.IsPositive() {
		return models.Budget{}, ErrAmountNotPositive
	}

	if params.AlertThreshold < 0 || params.AlertThreshold > 100 {
		return models.Budget{}, ErrThresholdOutOfRange
	}

	if params.Month.IsZero() {
		return models.Budget{}, types.ErrInvalidPeriod
	}

	exists, err := models.AccountExists(t.db, params.AccountID)
	if err != nil {
		return models.Budget{}, err
	}
	if !exists {
		return models.Budget{}, models.ErrAccountNotFound
	}

	if params.CategoryID != nil {
		owned, err := models.CategoryBelongsTo(t.db, *params.CategoryID, params.AccountID)
		if err != nil {
			return models.Budget{}, err
		}
		if !owned {
			return models.Budget{}, models.ErrResourceNotFound
		}
	}

	// The unique index does not catch duplicates for the total budget since
	// NULL values compare unequal, so check explicitly.
	var count int64
	err = t.matchKey(params.AccountID, params.CategoryID, params.Month).Count(&count).Error
	if err != nil {
		return models.Budget{}, err
	}
	if count > 0 {
		return models.Budget{}, ErrBudgetAlreadyExists
	}

	budget := models.Budget{
		AccountID:      params.AccountID,
		CategoryID:     params.CategoryID,
		Month:          params.Month,
		BudgetAmount:   params.BudgetAmount,
		AlertThreshold: params.AlertThreshold,
	}

	err = t.db.Create(&budget).Error
	if err != nil {
		return models.Budget{}, err
	}

	return budget, nil
}

func (t *Tracker) matchKey(accountID uuid.UUID, categoryID *uuid.UUID, month types.Month) *gorm.DB {
	query := t.db.Model(&models.Budget{}).
		Where("account_id = ? AND month = ?", accountID, month)

	if categoryID == nil {
		return query.Where("category_id IS NULL")
	}

	return query.Where("category_id = ?", *categoryID)
}

// Get returns the budget with the ID.
func (t *Tracker) Get(id uuid.UUID) (models.Budget, error) {
	var budget models.Budget

	err := t.db.First(&budget, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Budget{}, ErrBudgetNotFound
	}

	return budget, err
}

// List returns all budgets for an account, optionally limited to one month.
func (t *Tracker) List(accountID uuid.UUID, month *types.Month) ([]models.Budget, error) {
	var budgets []models.Budget

	query := t.db.Where("account_id = ?", accountID)
	if month != nil {
		query = query.Where("month = ?", *month)
	}

	err := query.Order("created_at").Find(&budgets).Error
	return budgets, err
}

// UpdateParams are the editable budget values. Nil fields stay unchanged.
type UpdateParams struct {
	BudgetAmount   *decimal.Decimal
	AlertThreshold *int
}

// Update edits the budget amount and/or alert threshold. An edit re-arms
// both alert flags, so the next evaluation may fire again.
func (t *Tracker) Update(id uuid.UUID, params UpdateParams) (models.Budget, error) {
	budget, err := t.Get(id)
	if err != nil {
		return models.Budget{}, err
	}

	updates := map[string]any{}

	if params.BudgetAmount != nil {
		if !params.BudgetAmount.IsPositive() {
			return models.Budget{}, ErrAmountNotPositive
		}
		updates["budget_amount"] = *params.BudgetAmount
	}

	if params.AlertThreshold != nil {
		if *params.AlertThreshold < 1 || *params.AlertThreshold > 100 {
			return models.Budget{}, ErrThresholdOutOfRange
		}
		updates["alert_threshold"] = *params.AlertThreshold
	}

	if len(updates) > 0 {
		updates["alert_sent"] = false
		updates["exceeded_alert_sent"] = false

		err = t.db.Model(&budget).Updates(updates).Error
		if err != nil {
			return models.Budget{}, err
		}
	}

	return t.Get(id)
}

// Delete removes the budget.
func (t *Tracker) Delete(id uuid.UUID) error {
	budget, err := t.Get(id)
	if err != nil {
		return err
	}

	return t.db.Delete(&budget).Error
}

// Spent derives the period spend covered by the budget by summing the
// settled transaction history. Outgoing transfers and withdrawals count as
// spend; deposits do not. For a category budget only matching transactions
// count, the total budget sums everything.
func (t *Tracker) Spent(budget models.Budget) (decimal.Decimal, error) {
	var spent decimal.NullDecimal

	query := t.db.Model(&models.TransactionHistory{}).
		Select("SUM(amount)").
		Where("from_account_id = ?", budget.AccountID).
		Where("status = ?", models.StatusApproved).
		Where("type IN ?", []models.TransactionType{models.TypeTransfer, models.TypeWithdrawal}).
		Where("completed_at >= ? AND completed_at < ?", budget.Month.FirstInstant(), budget.Month.NextMonthInstant())

	if budget.CategoryID != nil {
		query = query.Where("category_id = ?", *budget.CategoryID)
	}

	err := query.Row().Scan(&spent)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing transaction history failed: %w", err)
	}

	return spent.Decimal, nil
}
