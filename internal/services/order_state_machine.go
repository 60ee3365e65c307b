package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	domain "github.com/cakehub/api/internal/domain"
	"github.com/cakehub/api/internal/repositories"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderUnauthorized indicates the acting user may not perform the transition.
	ErrOrderUnauthorized = errors.New("order: unauthorized")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates optimistic concurrency conflicts or duplicates.
	ErrOrderConflict = errors.New("order: conflict")
)

var orderStateTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusRequested:        {domain.OrderStatusWaitingToPay, domain.OrderStatusCancelled},
	domain.OrderStatusWaitingToPay:     {domain.OrderStatusOrdered, domain.OrderStatusCancelled},
	domain.OrderStatusOrdered:          {domain.OrderStatusPreparing, domain.OrderStatusRefundInitiated, domain.OrderStatusCancelled},
	domain.OrderStatusPreparing:        {domain.OrderStatusPacked, domain.OrderStatusCancelled},
	domain.OrderStatusPacked:           {domain.OrderStatusWaitingForPickup, domain.OrderStatusCancelled},
	domain.OrderStatusWaitingForPickup: {domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	domain.OrderStatusRefundInitiated:  {domain.OrderStatusRefunded},
}

// autoCancelJobKey is the single deterministic key used at schedule time,
// removal time, and by the executor. Keep the three call sites in sync.
func autoCancelJobKey(orderID string) string {
	return "auto-cancel:" + orderID
}

// OrderStateMachineDeps bundles collaborators required to construct the state machine.
type OrderStateMachineDeps struct {
	Orders     repositories.OrderRepository
	Scheduler  DeferredJobScheduler
	UnitOfWork repositories.UnitOfWork
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type orderStateMachine struct {
	orders     repositories.OrderRepository
	scheduler  DeferredJobScheduler
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	logger     func(context.Context, string, map[string]any)
}

// NewOrderStateMachine wires dependencies into a concrete OrderStateMachine implementation.
func NewOrderStateMachine(deps OrderStateMachineDeps) (OrderStateMachine, error) {
	if deps.Orders == nil {
		return nil, errors.New("order state machine: order repository is required")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("order state machine: deferred job scheduler is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderStateMachine{
		orders:     deps.Orders,
		scheduler:  deps.Scheduler,
		unitOfWork: unit,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (m *orderStateMachine) Transition(ctx context.Context, cmd TransitionOrderCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	actor := strings.TrimSpace(cmd.ActorID)
	target := cmd.Target

	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if actor == "" {
		return Order{}, fmt.Errorf("%w: acting user id is required", ErrOrderInvalidInput)
	}
	if target == "" {
		return Order{}, fmt.Errorf("%w: target status is required", ErrOrderInvalidInput)
	}

	order, err := m.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, mapOrderRepositoryError(err)
	}

	if order.Status.IsTerminal() {
		return Order{}, fmt.Errorf("%w: order is %s", ErrOrderInvalidState, order.Status)
	}

	if actor != order.BuyerID && actor != order.SellerID {
		return Order{}, fmt.Errorf("%w: user %s does not belong to order %s", ErrOrderUnauthorized, actor, order.ID)
	}

	// Only the seller may confirm a request into the payable state.
	if actor == order.BuyerID && order.Status == domain.OrderStatusRequested && target == domain.OrderStatusWaitingToPay {
		return Order{}, fmt.Errorf("%w: only the seller can confirm an order", ErrOrderUnauthorized)
	}

	if order.Status == target {
		// Gateways replay callbacks; an already-applied transition acknowledges
		// cleanly. The order has left REQUESTED by now, so the removal is moot.
		m.removeAutoCancelJob(ctx, order.ID)
		return order, nil
	}

	if !slices.Contains(orderStateTransitions[order.Status], target) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrOrderInvalidState, order.Status, target)
	}

	// The transition will apply, so the pending auto-cancel job is moot. A
	// rejected transition must leave it armed or the order would linger in
	// REQUESTED forever.
	m.removeAutoCancelJob(ctx, order.ID)

	now := m.clock()
	order.Status = target
	order.UpdatedAt = now
	if target == domain.OrderStatusCancelled {
		order.CancelledBy = actor
		order.CancellationReason = strings.TrimSpace(cmd.Reason)
	}

	err = m.runInTx(ctx, func(txCtx context.Context) error {
		if err := m.orders.Update(txCtx, order); err != nil {
			return mapOrderRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	m.logger(ctx, "order.status.changed", map[string]any{
		"order":  order.ID,
		"status": string(order.Status),
		"actor":  actor,
	})

	return order, nil
}

// removeAutoCancelJob is best effort: the job may already have fired or never
// been scheduled.
func (m *orderStateMachine) removeAutoCancelJob(ctx context.Context, orderID string) {
	if removed, err := m.scheduler.Cancel(ctx, autoCancelJobKey(orderID)); err != nil {
		m.logger(ctx, "order.autocancel.remove.failed", map[string]any{
			"order": orderID,
			"error": err.Error(),
		})
	} else if !removed {
		m.logger(ctx, "order.autocancel.remove.noop", map[string]any{"order": orderID})
	}
}

func (m *orderStateMachine) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if m.unitOfWork == nil {
		return fn(ctx)
	}
	return m.unitOfWork.RunInTx(ctx, fn)
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func mapOrderRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}
