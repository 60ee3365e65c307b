package payments

import (
	"errors"
	"testing"

	domain "github.com/cakehub/api/internal/domain"
)

func TestParseWebhookPaymentEvents(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		target domain.OrderStatus
	}{
		{
			name:   "success confirms the order",
			body:   `{"payment":{"payment_status":"SUCCESS","cf_payment_id":"pay-1","payment_amount":4200},"order":{"order_id":"ord_1","payment_session_id":"sess-1"}}`,
			target: domain.OrderStatusOrdered,
		},
		{
			name:   "failure keeps the order payable",
			body:   `{"payment":{"payment_status":"FAILED","cf_payment_id":"pay-2"},"order":{"order_id":"ord_1"}}`,
			target: domain.OrderStatusWaitingToPay,
		},
		{
			name:   "abandoned checkout keeps the order payable",
			body:   `{"payment":{"payment_status":"user_dropped","cf_payment_id":"pay-3"},"order":{"order_id":"ord_1"}}`,
			target: domain.OrderStatusWaitingToPay,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := ParseWebhook([]byte(tc.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event.Kind != EventKindPayment {
				t.Fatalf("expected payment event, got %s", event.Kind)
			}
			if event.OrderRef != "ord_1" {
				t.Fatalf("expected order ref ord_1, got %s", event.OrderRef)
			}
			if event.TargetStatus != tc.target {
				t.Fatalf("expected target %s, got %s", tc.target, event.TargetStatus)
			}
		})
	}
}

func TestParseWebhookPaymentCarriesCorrelationIDs(t *testing.T) {
	body := `{"payment":{"payment_status":"SUCCESS","cf_payment_id":"pay-1"},"order":{"order_id":"ord_1","payment_session_id":"sess-1"}}`

	event, err := ParseWebhook([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.TrackingID != "pay-1" {
		t.Fatalf("expected tracking id pay-1, got %s", event.TrackingID)
	}
	if event.SessionID != "sess-1" {
		t.Fatalf("expected session id sess-1, got %s", event.SessionID)
	}
	if event.RawStatus != "SUCCESS" {
		t.Fatalf("expected raw status preserved, got %s", event.RawStatus)
	}
}

func TestParseWebhookRefundSuccess(t *testing.T) {
	body := `{"refund":{"refund_status":"SUCCESS","refund_id":"ref-1","order_id":"ord_1","refund_amount":4200}}`

	event, err := ParseWebhook([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Kind != EventKindRefund {
		t.Fatalf("expected refund event, got %s", event.Kind)
	}
	if event.OrderRef != "ord_1" || event.TrackingID != "ref-1" {
		t.Fatalf("unexpected refund event: %#v", event)
	}
	if event.TargetStatus != domain.OrderStatusRefunded {
		t.Fatalf("expected REFUNDED target, got %s", event.TargetStatus)
	}
}

func TestParseWebhookRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{name: "not json", body: `{nope`, want: ErrPayloadInvalid},
		{name: "no event", body: `{"order":{"order_id":"ord_1"}}`, want: ErrPayloadAmbiguous},
		{name: "both events", body: `{"payment":{"payment_status":"SUCCESS"},"refund":{"refund_status":"SUCCESS","order_id":"ord_1"},"order":{"order_id":"ord_1"}}`, want: ErrPayloadAmbiguous},
		{name: "payment without order", body: `{"payment":{"payment_status":"SUCCESS","cf_payment_id":"pay-1"}}`, want: ErrPayloadAmbiguous},
		{name: "refund without order", body: `{"refund":{"refund_status":"SUCCESS","refund_id":"ref-1"}}`, want: ErrPayloadAmbiguous},
		{name: "unknown payment status", body: `{"payment":{"payment_status":"MAYBE"},"order":{"order_id":"ord_1"}}`, want: ErrUnknownStatus},
		{name: "pending refund status", body: `{"refund":{"refund_status":"PENDING","order_id":"ord_1"}}`, want: ErrUnknownStatus},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseWebhook([]byte(tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
