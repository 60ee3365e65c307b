package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/cakehub/api/internal/domain"
)

// Status enumerates the normalised payment states reported by the gateway.
type Status string

const (
	// StatusSuccess indicates the gateway captured the payment.
	StatusSuccess Status = "SUCCESS"
	// StatusFailed indicates the payment attempt failed.
	StatusFailed Status = "FAILED"
	// StatusUserDropped indicates the customer abandoned the payment flow.
	StatusUserDropped Status = "USER_DROPPED"
)

// EventKind distinguishes the mutually exclusive webhook substructures.
type EventKind string

const (
	// EventKindPayment is a payment outcome for an order.
	EventKindPayment EventKind = "payment"
	// EventKindRefund is a refund outcome for an order.
	EventKindRefund EventKind = "refund"
)

var (
	// ErrPayloadInvalid indicates the webhook body could not be decoded.
	ErrPayloadInvalid = errors.New("payments: invalid webhook payload")
	// ErrPayloadAmbiguous indicates neither (or both) event substructures were present.
	ErrPayloadAmbiguous = errors.New("payments: webhook payload carries no recognisable event")
	// ErrUnknownStatus indicates the provider reported a status outside the mapping table.
	ErrUnknownStatus = errors.New("payments: unknown provider status")
)

// WebhookPayload mirrors the gateway's callback body. Exactly one of Payment
// or Refund is populated; presence decides the event kind.
type WebhookPayload struct {
	Payment *PaymentEvent `json:"payment,omitempty"`
	Refund  *RefundEvent  `json:"refund,omitempty"`
	Order   *OrderRef     `json:"order,omitempty"`
}

// PaymentEvent is the payment substructure of a webhook payload.
type PaymentEvent struct {
	PaymentStatus string `json:"payment_status"`
	TrackingID    string `json:"cf_payment_id"`
	Amount        int64  `json:"payment_amount"`
}

// RefundEvent is the refund substructure of a webhook payload.
type RefundEvent struct {
	RefundStatus string `json:"refund_status"`
	RefundID     string `json:"refund_id"`
	OrderID      string `json:"order_id"`
	Amount       int64  `json:"refund_amount"`
}

// OrderRef carries the gateway's order correlation identifiers.
type OrderRef struct {
	OrderID   string `json:"order_id"`
	SessionID string `json:"payment_session_id"`
}

// WebhookEvent is the normalised form handed to the reconciler.
type WebhookEvent struct {
	Kind         EventKind
	OrderRef     string
	SessionID    string
	TrackingID   string
	TargetStatus domain.OrderStatus
	RawStatus    string
}

// ParseWebhook decodes and normalises a gateway callback body.
func ParseWebhook(body []byte) (WebhookEvent, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}
	return Normalise(payload)
}

// Normalise maps a decoded payload onto a WebhookEvent, validating presence
// and translating the provider status to the target order status.
func Normalise(payload WebhookPayload) (WebhookEvent, error) {
	switch {
	case payload.Payment != nil && payload.Refund == nil:
		if payload.Order == nil || strings.TrimSpace(payload.Order.OrderID) == "" {
			return WebhookEvent{}, fmt.Errorf("%w: payment event without order id", ErrPayloadAmbiguous)
		}
		target, err := paymentTarget(payload.Payment.PaymentStatus)
		if err != nil {
			return WebhookEvent{}, err
		}
		return WebhookEvent{
			Kind:         EventKindPayment,
			OrderRef:     strings.TrimSpace(payload.Order.OrderID),
			SessionID:    strings.TrimSpace(payload.Order.SessionID),
			TrackingID:   strings.TrimSpace(payload.Payment.TrackingID),
			TargetStatus: target,
			RawStatus:    strings.TrimSpace(payload.Payment.PaymentStatus),
		}, nil

	case payload.Refund != nil && payload.Payment == nil:
		if strings.TrimSpace(payload.Refund.OrderID) == "" {
			return WebhookEvent{}, fmt.Errorf("%w: refund event without order id", ErrPayloadAmbiguous)
		}
		target, err := refundTarget(payload.Refund.RefundStatus)
		if err != nil {
			return WebhookEvent{}, err
		}
		return WebhookEvent{
			Kind:         EventKindRefund,
			OrderRef:     strings.TrimSpace(payload.Refund.OrderID),
			TrackingID:   strings.TrimSpace(payload.Refund.RefundID),
			TargetStatus: target,
			RawStatus:    strings.TrimSpace(payload.Refund.RefundStatus),
		}, nil
	}

	return WebhookEvent{}, ErrPayloadAmbiguous
}

func paymentTarget(raw string) (domain.OrderStatus, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusSuccess:
		return domain.OrderStatusOrdered, nil
	case StatusFailed, StatusUserDropped:
		return domain.OrderStatusWaitingToPay, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

func refundTarget(raw string) (domain.OrderStatus, error) {
	if Status(strings.ToUpper(strings.TrimSpace(raw))) == StatusSuccess {
		return domain.OrderStatusRefunded, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}
