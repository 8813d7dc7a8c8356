package alert

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/huyvuong1109/Financial-Management-Web/internal/mail"
	"github.com/huyvuong1109/Financial-Management-Web/internal/metrics"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Consumer processes alert messages on the notification side.
//
// For every message it attempts delivery best-effort and unconditionally
// persists a BudgetAlert record, so a failed delivery is still visible in
// the audit trail.
type Consumer struct {
	db     *gorm.DB
	sender mail.Sender
}

// NewConsumer returns a Consumer persisting to db and delivering via sender.
func NewConsumer(db *gorm.DB, sender mail.Sender) *Consumer {
	return &Consumer{db: db, sender: sender}
}

// Handle processes a single raw message body. Messages that cannot be
// decoded are logged and dropped; this delivery attempt is terminal.
func (c *Consumer) Handle(body []byte) {
	var message Message

	err := json.Unmarshal(body, &message)
	if err != nil {
		log.Error().Err(err).Msg("failed to decode budget alert message")
		return
	}

	delivered := false
	if message.AccountEmail != "" {
		err = c.sender.Send(message.AccountEmail, message.Subject(), message.Body())
		if err != nil {
			log.Error().Err(err).
				Str("account", message.AccountID.String()).
				Msg("failed to deliver budget alert")
		} else {
			delivered = true
		}
	}

	record := models.BudgetAlert{
		BudgetID:          message.BudgetID,
		AccountID:         message.AccountID,
		AccountEmail:      message.AccountEmail,
		CategoryID:        message.CategoryID,
		CategoryName:      message.CategoryName,
		BudgetMonth:       message.BudgetMonth,
		BudgetYear:        message.BudgetYear,
		BudgetAmount:      message.BudgetAmount,
		SpentAmount:       message.SpentAmount,
		ProgressPercent:   message.ProgressPercent,
		AlertType:         message.AlertType,
		Message:           message.Message,
		DeliveryAttempted: delivered,
	}

	err = c.db.Create(&record).Error
	if err != nil {
		log.Error().Err(err).
			Str("budget", message.BudgetID.String()).
			Msg("failed to persist budget alert")
		return
	}

	metrics.AlertsConsumed.WithLabelValues(strconv.FormatBool(delivered)).Inc()
	log.Info().
		Str("alert", record.ID.String()).
		Str("type", string(record.AlertType)).
		Bool("delivered", delivered).
		Msg("budget alert processed")
}

// Run consumes deliveries until the context is canceled or the channel
// closes.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}

			c.Handle(delivery.Body)
		}
	}
}
