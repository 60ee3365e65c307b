package services

import (
	"context"
	"time"

	domain "github.com/cakehub/api/internal/domain"
	"github.com/cakehub/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order       = domain.Order
	OrderStatus = domain.OrderStatus
	Cake        = domain.Cake
	CakeVariant = domain.CakeVariant
	Store       = domain.Store
	UserProfile = domain.UserProfile
	Pagination  = domain.Pagination
)

// OrderService encapsulates the order creation workflow and read surfaces.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string, actorID string) (Order, error)
	ListPlaced(ctx context.Context, cmd ListOrdersCommand) (domain.CursorPage[Order], error)
	ListReceived(ctx context.Context, cmd ListOrdersCommand) (domain.CursorPage[Order], error)
}

// OrderStateMachine validates and applies order status transitions.
type OrderStateMachine interface {
	Transition(ctx context.Context, cmd TransitionOrderCommand) (Order, error)
}

// PaymentReconciler drives order transitions from asynchronous gateway callbacks.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, body []byte) (WebhookResult, error)
}

// JobPayload is the body carried by a deferred job.
type JobPayload struct {
	OrderID string `json:"order_id"`
}

// JobHandler consumes fired deferred jobs. Delivery is at-least-once, so
// handlers must tolerate duplicates.
type JobHandler func(ctx context.Context, payload JobPayload)

// DeferredJobScheduler is a durable delay queue keyed by a deterministic job key.
type DeferredJobScheduler interface {
	Schedule(ctx context.Context, key string, payload JobPayload, delay time.Duration) error
	// Cancel removes a pending job, reporting whether it was still queued.
	Cancel(ctx context.Context, key string) (bool, error)
}

// Notifier delivers a user-facing notification through the external push channel.
type Notifier interface {
	Notify(ctx context.Context, userID string, title string, message string) error
}

// TopicPublisher publishes realtime messages to a named topic.
type TopicPublisher interface {
	Publish(ctx context.Context, topic string, message []byte) error
}

// CreateOrderCommand is the draft order submitted by an authenticated buyer.
type CreateOrderCommand struct {
	BuyerID       string
	CakeID        string
	CakeVariantID string
	Quantity      int
	NeedBefore    string
	KnownFor      string
	TextOnCake    string
}

// ListOrdersCommand narrows the placed/received order queries.
type ListOrdersCommand struct {
	UserID        string
	Status        []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Pagination    Pagination
}

// TransitionOrderCommand requests a status change on behalf of an acting user.
type TransitionOrderCommand struct {
	OrderID string
	ActorID string
	Target  OrderStatus
	// Reason is recorded only on transitions to CANCELLED.
	Reason string
}

// WebhookResult is the structured acknowledgment returned to the gateway.
type WebhookResult struct {
	Accepted bool
	OrderID  string
	Status   OrderStatus
	// Note explains no-op acknowledgments for operator visibility.
	Note string
}

// OrderListFilter re-exports the repository filter for handler use.
type OrderListFilter = repositories.OrderListFilter
