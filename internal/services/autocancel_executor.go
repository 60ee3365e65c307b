package services

import (
	"context"
	"errors"
	"strings"

	domain "github.com/cakehub/api/internal/domain"
	"github.com/cakehub/api/internal/repositories"
)

const autoCancelReason = "Not processed within the allowed time"

// AutoCancelExecutorDeps bundles collaborators required to construct the executor.
type AutoCancelExecutorDeps struct {
	Orders       repositories.OrderRepository
	StateMachine OrderStateMachine
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

// AutoCancelExecutor consumes fired deferred jobs and cancels orders that were
// never confirmed. Delivery is at-least-once, so every path is a safe repeat.
type AutoCancelExecutor struct {
	orders       repositories.OrderRepository
	stateMachine OrderStateMachine
	logger       func(context.Context, string, map[string]any)
}

// NewAutoCancelExecutor wires dependencies into an AutoCancelExecutor.
func NewAutoCancelExecutor(deps AutoCancelExecutorDeps) (*AutoCancelExecutor, error) {
	if deps.Orders == nil {
		return nil, errors.New("auto cancel executor: order repository is required")
	}
	if deps.StateMachine == nil {
		return nil, errors.New("auto cancel executor: order state machine is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &AutoCancelExecutor{
		orders:       deps.Orders,
		stateMachine: deps.StateMachine,
		logger:       logger,
	}, nil
}

// Handle is registered as the scheduler's fire callback. It never returns an
// error: job runtimes retry on failure and a retry here is always a no-op.
func (e *AutoCancelExecutor) Handle(ctx context.Context, payload JobPayload) {
	orderID := strings.TrimSpace(payload.OrderID)
	if orderID == "" {
		e.logger(ctx, "order.autocancel.payload.empty", nil)
		return
	}

	order, err := e.orders.FindByID(ctx, orderID)
	if err != nil {
		e.logger(ctx, "order.autocancel.load.failed", map[string]any{
			"order": orderID,
			"error": err.Error(),
		})
		return
	}

	if order.Status != domain.OrderStatusRequested {
		// The order progressed before the deadline, or a previous delivery of
		// this job already cancelled it.
		e.logger(ctx, "order.autocancel.skipped", map[string]any{
			"order":  order.ID,
			"status": string(order.Status),
		})
		return
	}

	// The buyer is the acting identity: the cancellation means the buyer's
	// request expired unprocessed.
	_, err = e.stateMachine.Transition(ctx, TransitionOrderCommand{
		OrderID: order.ID,
		ActorID: order.BuyerID,
		Target:  domain.OrderStatusCancelled,
		Reason:  autoCancelReason,
	})
	if err != nil {
		e.logger(ctx, "order.autocancel.transition.failed", map[string]any{
			"order": order.ID,
			"error": err.Error(),
		})
		return
	}

	e.logger(ctx, "order.autocancel.applied", map[string]any{"order": order.ID})
}
