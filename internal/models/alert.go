package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertType classifies a budget threshold crossing.
type AlertType string

const (
	AlertNearLimit AlertType = "NEAR_LIMIT"
	AlertExceeded  AlertType = "EXCEEDED"
)

// BudgetAlert is the persisted record of a budget alert that was consumed
// from the queue. It is a point-in-time snapshot and never mutated after
// insert; DeliveryAttempted records whether the notification delivery
// succeeded, the row is written either way so the alert is never lost from
// the audit trail.
type BudgetAlert struct {
	DefaultModel
	BudgetID          uuid.UUID       `json:"budgetId"`
	AccountID         uuid.UUID       `json:"accountId"`
	AccountEmail      string          `json:"accountEmail"`
	CategoryID        *uuid.UUID      `json:"categoryId"`
	CategoryName      string          `json:"categoryName"`
	BudgetMonth       int             `json:"budgetMonth"`
	BudgetYear        int             `json:"budgetYear"`
	BudgetAmount      decimal.Decimal `json:"budgetAmount" gorm:"type:DECIMAL(20,8)"`
	SpentAmount       decimal.Decimal `json:"spentAmount" gorm:"type:DECIMAL(20,8)"`
	ProgressPercent   decimal.Decimal `json:"progressPercent" gorm:"type:DECIMAL(20,8)"`
	AlertType         AlertType       `json:"alertType"`
	Message           string          `json:"message"`
	DeliveryAttempted bool            `json:"deliveryAttempted"`
}
