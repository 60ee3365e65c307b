package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cakehub/api/internal/platform/httpx"
	"github.com/cakehub/api/internal/services"
)

const maxWebhookBodySize = 64 * 1024

// WebhookHandlers receives asynchronous callbacks from the payment gateway.
type WebhookHandlers struct {
	reconciler services.PaymentReconciler
}

// NewWebhookHandlers constructs a new WebhookHandlers instance.
func NewWebhookHandlers(reconciler services.PaymentReconciler) *WebhookHandlers {
	return &WebhookHandlers{reconciler: reconciler}
}

// Routes registers the /webhooks endpoints.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/payments", h.paymentCallback)
}

type webhookAckResponse struct {
	Accepted bool   `json:"accepted"`
	OrderID  string `json:"order_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Note     string `json:"note,omitempty"`
}

func (h *WebhookHandlers) paymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reconciler == nil {
		httpx.WriteError(ctx, w, httpx.NewError("webhook_unavailable", "payment reconciler unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "failed to read request body", http.StatusBadRequest))
		return
	}

	result, err := h.reconciler.Reconcile(ctx, body)
	if err != nil {
		writeWebhookError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, webhookAckResponse{
		Accepted: result.Accepted,
		OrderID:  result.OrderID,
		Status:   string(result.Status),
		Note:     result.Note,
	})
}

// Gateway retries on non-2xx responses. Only payload and lookup failures are
// surfaced as errors; everything the reconciler could classify is acknowledged.
func writeWebhookError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "webhook payload is not valid", http.StatusBadRequest))
	case errors.Is(err, services.ErrPaymentOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("payment_order_unknown", "callback does not match a known order", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("webhook_error", "failed to process payment callback", http.StatusInternalServerError))
	}
}
