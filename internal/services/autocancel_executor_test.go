package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/cakehub/api/internal/domain"
)

type stubStateMachine struct {
	transitionFn func(context.Context, TransitionOrderCommand) (Order, error)
	commands     []TransitionOrderCommand
}

func (s *stubStateMachine) Transition(ctx context.Context, cmd TransitionOrderCommand) (Order, error) {
	s.commands = append(s.commands, cmd)
	if s.transitionFn != nil {
		return s.transitionFn(ctx, cmd)
	}
	return Order{ID: cmd.OrderID, Status: cmd.Target}, nil
}

func newExecutor(t *testing.T, orders *stubOrderRepo, sm *stubStateMachine) *AutoCancelExecutor {
	t.Helper()
	exec, err := NewAutoCancelExecutor(AutoCancelExecutorDeps{
		Orders:       orders,
		StateMachine: sm,
	})
	if err != nil {
		t.Fatalf("new auto cancel executor: %v", err)
	}
	return exec
}

func TestAutoCancelExecutorCancelsRequestedOrder(t *testing.T) {
	orders := &stubOrderRepo{
		findFn: func(_ context.Context, id string) (domain.Order, error) {
			return domain.Order{ID: id, BuyerID: "buyer-1", SellerID: "seller-1", Status: domain.OrderStatusRequested}, nil
		},
	}
	sm := &stubStateMachine{}
	exec := newExecutor(t, orders, sm)

	exec.Handle(context.Background(), JobPayload{OrderID: "ord_1"})

	if len(sm.commands) != 1 {
		t.Fatalf("expected 1 transition got %d", len(sm.commands))
	}
	cmd := sm.commands[0]
	if cmd.ActorID != "buyer-1" {
		t.Fatalf("expected buyer as acting identity got %s", cmd.ActorID)
	}
	if cmd.Target != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled target got %s", cmd.Target)
	}
	if cmd.Reason == "" {
		t.Fatalf("expected automated cancellation reason")
	}
}

func TestAutoCancelExecutorSkipsProgressedOrders(t *testing.T) {
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusWaitingToPay,
		domain.OrderStatusOrdered,
		domain.OrderStatusDelivered,
		domain.OrderStatusCancelled,
		domain.OrderStatusRefunded,
	} {
		t.Run(string(status), func(t *testing.T) {
			orders := &stubOrderRepo{
				findFn: func(_ context.Context, id string) (domain.Order, error) {
					return domain.Order{ID: id, BuyerID: "buyer-1", Status: status}, nil
				},
			}
			sm := &stubStateMachine{}
			exec := newExecutor(t, orders, sm)

			exec.Handle(context.Background(), JobPayload{OrderID: "ord_1"})

			if len(sm.commands) != 0 {
				t.Fatalf("progressed order must not be transitioned, got %v", sm.commands)
			}
		})
	}
}

func TestAutoCancelExecutorDiscardsStalePayload(t *testing.T) {
	orders := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) {
			return domain.Order{}, notFoundErr("order missing")
		},
	}
	sm := &stubStateMachine{}
	exec := newExecutor(t, orders, sm)

	exec.Handle(context.Background(), JobPayload{OrderID: "ord_gone"})
	exec.Handle(context.Background(), JobPayload{})

	if len(sm.commands) != 0 {
		t.Fatalf("stale payloads must be discarded, got %v", sm.commands)
	}
}

func TestAutoCancelExecutorSwallowsTransitionFailure(t *testing.T) {
	orders := &stubOrderRepo{
		findFn: func(_ context.Context, id string) (domain.Order, error) {
			return domain.Order{ID: id, BuyerID: "buyer-1", Status: domain.OrderStatusRequested}, nil
		},
	}
	sm := &stubStateMachine{
		transitionFn: func(context.Context, TransitionOrderCommand) (Order, error) {
			return Order{}, errors.New("lost the race to a human cancel")
		},
	}
	exec := newExecutor(t, orders, sm)

	// Must not panic and must not propagate anything to the job runtime.
	exec.Handle(context.Background(), JobPayload{OrderID: "ord_1"})
	exec.Handle(context.Background(), JobPayload{OrderID: "ord_1"})
}
