package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cakehub/api/internal/payments"
	"github.com/cakehub/api/internal/repositories"
)

// ErrPaymentOrderNotFound indicates the gateway referenced an order this system
// does not know. Handlers surface it as an upstream-data problem, not a client error.
var ErrPaymentOrderNotFound = errors.New("payments: order not found for webhook")

// PaymentReconcilerDeps bundles collaborators required to construct the reconciler.
type PaymentReconcilerDeps struct {
	Orders       repositories.OrderRepository
	StateMachine OrderStateMachine
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type paymentReconciler struct {
	orders       repositories.OrderRepository
	stateMachine OrderStateMachine
	logger       func(context.Context, string, map[string]any)
}

// NewPaymentReconciler wires dependencies into a PaymentReconciler implementation.
func NewPaymentReconciler(deps PaymentReconcilerDeps) (PaymentReconciler, error) {
	if deps.Orders == nil {
		return nil, errors.New("payment reconciler: order repository is required")
	}
	if deps.StateMachine == nil {
		return nil, errors.New("payment reconciler: order state machine is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &paymentReconciler{
		orders:       deps.Orders,
		stateMachine: deps.StateMachine,
		logger:       logger,
	}, nil
}

func (r *paymentReconciler) Reconcile(ctx context.Context, body []byte) (WebhookResult, error) {
	event, err := payments.ParseWebhook(body)
	if err != nil {
		return WebhookResult{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
	}

	order, err := r.orders.FindByPaymentRef(ctx, event.OrderRef)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return WebhookResult{}, fmt.Errorf("%w: %s", ErrPaymentOrderNotFound, event.OrderRef)
		}
		return WebhookResult{}, mapOrderRepositoryError(err)
	}

	if event.Kind == payments.EventKindPayment {
		r.recordPaymentRef(ctx, &order, event)
	}

	if order.Status == event.TargetStatus {
		// Replayed callback; acknowledge without touching the order again.
		return WebhookResult{
			Accepted: true,
			OrderID:  order.ID,
			Status:   order.Status,
			Note:     "already applied",
		}, nil
	}

	// The gateway has no notion of platform roles, so the buyer always acts.
	updated, err := r.stateMachine.Transition(ctx, TransitionOrderCommand{
		OrderID: order.ID,
		ActorID: order.BuyerID,
		Target:  event.TargetStatus,
	})
	if err != nil {
		if errors.Is(err, ErrOrderInvalidState) {
			// Stale callback racing a human transition. Acknowledge so the
			// gateway stops retrying; the order keeps its current state.
			r.logger(ctx, "payments.webhook.stale", map[string]any{
				"order":  order.ID,
				"target": string(event.TargetStatus),
				"status": string(order.Status),
			})
			return WebhookResult{
				Accepted: true,
				OrderID:  order.ID,
				Status:   order.Status,
				Note:     "transition not applicable",
			}, nil
		}
		return WebhookResult{}, err
	}

	r.logger(ctx, "payments.webhook.applied", map[string]any{
		"order":  updated.ID,
		"kind":   string(event.Kind),
		"status": string(updated.Status),
	})

	return WebhookResult{
		Accepted: true,
		OrderID:  updated.ID,
		Status:   updated.Status,
	}, nil
}

// recordPaymentRef stores the gateway correlation ids the first time they are
// seen. Failure to record them is not fatal to reconciliation.
func (r *paymentReconciler) recordPaymentRef(ctx context.Context, order *Order, event payments.WebhookEvent) {
	changed := false
	if event.TrackingID != "" && order.PaymentTrackingID != event.TrackingID {
		order.PaymentTrackingID = event.TrackingID
		changed = true
	}
	if event.SessionID != "" && order.SessionID != event.SessionID {
		order.SessionID = event.SessionID
		changed = true
	}
	if !changed {
		return
	}
	if err := r.orders.Update(ctx, *order); err != nil {
		r.logger(ctx, "payments.webhook.tracking.failed", map[string]any{
			"order": order.ID,
			"error": err.Error(),
		})
	}
}
