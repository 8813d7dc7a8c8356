package budget

import (
	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/huyvuong1109/Financial-Management-Web/internal/types"
	"github.com/shopspring/decimal"
)

// Progress is the spending progress of a single budget with derived values.
type Progress struct {
	BudgetID           uuid.UUID       `json:"budgetId"`
	AccountID          uuid.UUID       `json:"accountId"`
	CategoryID         *uuid.UUID      `json:"categoryId"`
	Month              types.Month     `json:"month"`
	BudgetAmount       decimal.Decimal `json:"budgetAmount"`
	Spent              decimal.Decimal `json:"spent"`
	Remaining          decimal.Decimal `json:"remaining"`
	SpendingPercentage decimal.Decimal `json:"spendingPercentage"`
	AlertThreshold     int             `json:"alertThreshold"`
	Exceeded           bool            `json:"exceeded"`
}

// Progress derives the spending progress for the budget with the ID.
func (t *Tracker) Progress(id uuid.UUID) (Progress, error) {
	budget, err := t.Get(id)
	if err != nil {
		return Progress{}, err
	}

	return t.progressFor(budget)
}

func (t *Tracker) progressFor(budget models.Budget) (Progress, error) {
	spent, err := t.Spent(budget)
	if err != nil {
		return Progress{}, err
	}

	remaining := budget.BudgetAmount.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return Progress{
		BudgetID:           budget.ID,
		AccountID:          budget.AccountID,
		CategoryID:         budget.CategoryID,
		Month:              budget.Month,
		BudgetAmount:       budget.BudgetAmount,
		Spent:              spent,
		Remaining:          remaining,
		SpendingPercentage: budget.SpendingPercentage(spent),
		AlertThreshold:     budget.AlertThreshold,
		Exceeded:           spent.GreaterThan(budget.BudgetAmount),
	}, nil
}

// Summary aggregates the budgets of an account for one month.
type Summary struct {
	Month           types.Month     `json:"month"`
	TotalBudget     decimal.Decimal `json:"totalBudget"`
	TotalSpent      decimal.Decimal `json:"totalSpent"`
	TotalRemaining  decimal.Decimal `json:"totalRemaining"`
	TotalPercentage decimal.Decimal `json:"totalPercentage"`
	BudgetCount     int             `json:"budgetCount"`
	ExceededCount   int             `json:"exceededCount"`
}

// MonthlyProgress derives the spending progress for all budgets of an
// account in a month.
func (t *Tracker) MonthlyProgress(accountID uuid.UUID, month types.Month) ([]Progress, error) {
	budgets, err := t.List(accountID, &month)
	if err != nil {
		return nil, err
	}

	progress := make([]Progress, 0, len(budgets))
	for _, budget := range budgets {
		p, err := t.progressFor(budget)
		if err != nil {
			return nil, err
		}

		progress = append(progress, p)
	}

	return progress, nil
}

// MonthlySummary aggregates the budgets of an account for one month.
func (t *Tracker) MonthlySummary(accountID uuid.UUID, month types.Month) (Summary, error) {
	progress, err := t.MonthlyProgress(accountID, month)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Month: month}
	for _, p := range progress {
		summary.TotalBudget = summary.TotalBudget.Add(p.BudgetAmount)
		summary.TotalSpent = summary.TotalSpent.Add(p.Spent)
		summary.BudgetCount++
		if p.Exceeded {
			summary.ExceededCount++
		}
	}

	summary.TotalRemaining = summary.TotalBudget.Sub(summary.TotalSpent)
	if summary.TotalRemaining.IsNegative() {
		summary.TotalRemaining = decimal.Zero
	}

	if summary.TotalBudget.IsPositive() {
		summary.TotalPercentage = summary.TotalSpent.Mul(hundred).DivRound(summary.TotalBudget, 2)
	}

	return summary, nil
}
