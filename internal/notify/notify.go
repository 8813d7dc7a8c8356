// Package notify informs downstream collaborators about settled payments.
package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PaymentRecorder is the downstream payment-record collaborator. The call is
// fire-and-forget: implementations log failures and never report them back.
type PaymentRecorder interface {
	NotifyPaymentRecorded(transactionID, fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal)
}

type paymentMessage struct {
	PaymentID     uuid.UUID       `json:"paymentId"`
	FromAccountID uuid.UUID       `json:"fromAccountId"`
	ToAccountID   uuid.UUID       `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
}

// HTTPPaymentRecorder posts payment records to the payment service.
type HTTPPaymentRecorder struct {
	URL    string
	Client *http.Client
}

// NewHTTPPaymentRecorder returns a recorder posting to url.
func NewHTTPPaymentRecorder(url string) *HTTPPaymentRecorder {
	return &HTTPPaymentRecorder{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyPaymentRecorded posts the payment record. Failures are logged only.
func (r *HTTPPaymentRecorder) NotifyPaymentRecorded(transactionID, fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal) {
	body, err := json.Marshal(paymentMessage{
		PaymentID:     transactionID,
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		Amount:        amount,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to serialize payment record")
		return
	}

	resp, err := r.Client.Post(r.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("transaction", transactionID.String()).Msg("failed to notify payment service")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		log.Error().Int("status", resp.StatusCode).Str("transaction", transactionID.String()).Msg("payment service rejected payment record")
	}
}

// NopPaymentRecorder discards payment records. It is used when no payment
// service is configured.
type NopPaymentRecorder struct{}

// NotifyPaymentRecorded does nothing.
func (NopPaymentRecorder) NotifyPaymentRecorded(uuid.UUID, uuid.UUID, uuid.UUID, decimal.Decimal) {}
