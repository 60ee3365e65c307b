package repositories

import (
	"context"
	"time"

	domain "github.com/cakehub/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderListFilter narrows order list queries.
type OrderListFilter struct {
	BuyerID   string
	SellerID  string
	Status    []string
	DateRange domain.RangeQuery[time.Time]
	domain.Pagination
}

// OrderRepository persists order documents. Orders are never physically deleted.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// FindByPaymentRef resolves an order by payment-gateway correlation id,
	// falling back to the order id itself when the gateway echoes it.
	FindByPaymentRef(ctx context.Context, ref string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
	// ListByCake returns every order referencing the cake in creation order.
	ListByCake(ctx context.Context, cakeID string) ([]domain.Order, error)
}

// CakeRepository exposes the catalog lookups the order workflow depends on.
type CakeRepository interface {
	FindByID(ctx context.Context, cakeID string) (domain.Cake, error)
	SetKnownFor(ctx context.Context, cakeID string, tag string) error
}

// StoreRepository resolves stores and their operating-hours data.
type StoreRepository interface {
	FindByID(ctx context.Context, storeID string) (domain.Store, error)
}

// UserRepository resolves user profiles from the user directory.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (domain.UserProfile, error)
}

// CounterRepository issues monotonically increasing sequence values.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}
