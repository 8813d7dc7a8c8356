package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/alert"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/huyvuong1109/Financial-Management-Web/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Evaluate re-checks all budgets of an account for a period and fires
// threshold alerts for crossings that have not been alerted yet.
//
// An EXCEEDED alert fires once per budget while exceededAlertSent is unset;
// a NEAR_LIMIT alert fires once while alertSent is unset. An EXCEEDED firing
// also sets alertSent, so a NEAR_LIMIT never follows an EXCEEDED for the
// same budget. The flags are persisted before the dispatch attempt: a failed
// publish is logged and lost rather than re-fired on the next evaluation.
func (t *Tracker) Evaluate(ctx context.Context, accountID uuid.UUID, month types.Month) error {
	budgets, err := t.List(accountID, &month)
	if err != nil {
		return err
	}

	for _, budget := range budgets {
		err = t.evaluateOne(ctx, budget)
		if err != nil {
			return err
		}
	}

	return nil
}

// CheckAndSendAlerts evaluates the account's budgets for the current month.
// The transaction engine calls this after settlement.
func (t *Tracker) CheckAndSendAlerts(ctx context.Context, accountID uuid.UUID) error {
	return t.Evaluate(ctx, accountID, types.MonthOf(t.now()))
}

func (t *Tracker) evaluateOne(ctx context.Context, budget models.Budget) error {
	spent, err := t.Spent(budget)
	if err != nil {
		return err
	}

	progress := budget.SpendingPercentage(spent)

	var alertType models.AlertType
	switch {
	case progress.GreaterThan(hundred) && !budget.ExceededAlertSent:
		alertType = models.AlertExceeded
	case progress.GreaterThanOrEqual(decimal.NewFromInt(int64(budget.AlertThreshold))) && !budget.AlertSent && !budget.ExceededAlertSent:
		alertType = models.AlertNearLimit
	default:
		return nil
	}

	// Persist the flags first so a dispatch failure cannot cause the same
	// crossing to fire again.
	flags := map[string]any{"alert_sent": true}
	if alertType == models.AlertExceeded {
		flags["exceeded_alert_sent"] = true
	}

	err = t.db.Model(&budget).Updates(flags).Error
	if err != nil {
		return err
	}

	message, err := t.buildMessage(budget, spent, progress, alertType)
	if err != nil {
		return err
	}

	err = t.dispatcher.Dispatch(ctx, message)
	if err != nil {
		log.Error().Err(err).
			Str("budget", budget.ID.String()).
			Str("type", string(alertType)).
			Msg("failed to dispatch budget alert")
		return nil
	}

	log.Info().
		Str("budget", budget.ID.String()).
		Str("type", string(alertType)).
		Str("progress", progress.String()).
		Msg("budget alert dispatched")

	return nil
}

func (t *Tracker) buildMessage(budget models.Budget, spent, progress decimal.Decimal, alertType models.AlertType) (alert.Message, error) {
	var account models.Account
	err := t.db.First(&account, "id = ?", budget.AccountID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return alert.Message{}, err
	}

	var categoryName string
	if budget.CategoryID != nil {
		var category models.Category
		err = t.db.First(&category, "id = ?", *budget.CategoryID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return alert.Message{}, err
		}
		categoryName = category.Name
	}

	year, monthNumber := budget.Month.Split()

	var text string
	if alertType == models.AlertExceeded {
		text = fmt.Sprintf("You have exceeded your budget: %s spent of %s budgeted.",
			spent.StringFixed(2), budget.BudgetAmount.StringFixed(2))
	} else {
		text = fmt.Sprintf("You have used %s%% of your budget: %s spent of %s budgeted.",
			progress.StringFixed(1), spent.StringFixed(2), budget.BudgetAmount.StringFixed(2))
	}

	return alert.Message{
		BudgetID:        budget.ID,
		AccountID:       budget.AccountID,
		AccountEmail:    account.Email,
		CategoryID:      budget.CategoryID,
		CategoryName:    categoryName,
		BudgetMonth:     monthNumber,
		BudgetYear:      year,
		BudgetAmount:    budget.BudgetAmount,
		SpentAmount:     spent,
		ProgressPercent: progress,
		AlertType:       alertType,
		Message:         text,
	}, nil
}
