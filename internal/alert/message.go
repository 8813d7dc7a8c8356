// Package alert publishes budget alerts to a queue and consumes them on the
// notification side. Delivery is at-most-once and best-effort: the producer
// never retries a failed publish and the consumer does not requeue.
package alert

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/shopspring/decimal"
)

// Queue is the queue the producer and consumer agree on.
const Queue = "budget-alert-queue"

// Message is the queue payload for a single budget threshold crossing.
// One message is published per firing.
type Message struct {
	BudgetID        uuid.UUID        `json:"budgetId"`
	AccountID       uuid.UUID        `json:"accountId"`
	AccountEmail    string           `json:"accountEmail"`
	CategoryID      *uuid.UUID       `json:"categoryId"`
	CategoryName    string           `json:"categoryName"`
	BudgetMonth     int              `json:"budgetMonth"`
	BudgetYear      int              `json:"budgetYear"`
	BudgetAmount    decimal.Decimal  `json:"budgetAmount"`
	SpentAmount     decimal.Decimal  `json:"spentAmount"`
	ProgressPercent decimal.Decimal  `json:"progressPercent"`
	AlertType       models.AlertType `json:"alertType"`
	Message         string           `json:"message"`
}

// Subject returns the notification subject line for the message.
func (m Message) Subject() string {
	if m.AlertType == models.AlertExceeded {
		return fmt.Sprintf("Budget exceeded for %d/%d", m.BudgetMonth, m.BudgetYear)
	}

	return fmt.Sprintf("Budget almost used up for %d/%d", m.BudgetMonth, m.BudgetYear)
}

// Body renders the notification body for the message.
func (m Message) Body() string {
	category := m.CategoryName
	if category == "" {
		category = "Total spending"
	}

	return fmt.Sprintf(
		"%s\n\nCategory: %s\nBudget: %s\nSpent: %s\nProgress: %s%%\nMonth: %d/%d\n",
		m.Message, category,
		m.BudgetAmount.StringFixed(2), m.SpentAmount.StringFixed(2),
		m.ProgressPercent.StringFixed(1),
		m.BudgetMonth, m.BudgetYear,
	)
}
