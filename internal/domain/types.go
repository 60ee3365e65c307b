package domain

import "time"

// OrderStatus enumerates the lifecycle states an order moves through.
type OrderStatus string

const (
	// OrderStatusRequested is the initial state after the buyer places a request.
	OrderStatusRequested OrderStatus = "REQUESTED"
	// OrderStatusWaitingToPay indicates the seller confirmed the request and payment is expected.
	OrderStatusWaitingToPay OrderStatus = "WAITING_TO_PAY"
	// OrderStatusOrdered indicates payment succeeded and the order is committed.
	OrderStatusOrdered OrderStatus = "ORDERED"
	// OrderStatusPreparing indicates the seller started preparing the cake.
	OrderStatusPreparing OrderStatus = "PREPARING"
	// OrderStatusPacked indicates the cake has been packed.
	OrderStatusPacked OrderStatus = "PACKED"
	// OrderStatusWaitingForPickup indicates the order awaits buyer pickup or courier handover.
	OrderStatusWaitingForPickup OrderStatus = "WAITING_FOR_PICKUP"
	// OrderStatusDelivered is the terminal success state.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusRefundInitiated indicates a refund was requested for a paid order.
	OrderStatusRefundInitiated OrderStatus = "REFUND_INITIATED"
	// OrderStatusRefunded is the terminal state after a successful refund.
	OrderStatusRefunded OrderStatus = "REFUNDED"
	// OrderStatusCancelled is the terminal state for abandoned or rejected orders.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further status mutation is permitted.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusDelivered, OrderStatusRefunded:
		return true
	}
	return false
}

// Order is a buyer's request for a specific cake variant from a specific store.
type Order struct {
	ID            string
	OrderNumber   string
	CakeID        string
	CakeVariantID string
	BuyerID       string
	SellerID      string
	Quantity      int
	NeedBefore    string
	Status        OrderStatus

	// Payment-gateway correlation data, empty until the gateway reports back.
	PaymentTrackingID string
	SessionID         string

	KnownFor   string
	TextOnCake string

	CancelledBy        string
	CancellationReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CakeVariant is a purchasable variation (size, flavour) of a cake.
type CakeVariant struct {
	ID    string
	Name  string
	Price int64
}

// Cake is the catalog read model consumed during order creation.
type Cake struct {
	ID       string
	StoreID  string
	Name     string
	Variants []CakeVariant
	KnownFor string
}

// Variant returns the declared variant with the given id, if any.
func (c Cake) Variant(variantID string) (CakeVariant, bool) {
	for _, v := range c.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return CakeVariant{}, false
}

// StoreStatus enumerates the operational states of a store.
type StoreStatus string

const (
	StoreStatusPending   StoreStatus = "PENDING"
	StoreStatusApproved  StoreStatus = "APPROVED"
	StoreStatusSuspended StoreStatus = "SUSPENDED"
)

// OperatingWindow holds the open and close clock times for one weekday, in "15:04" form.
// An empty window means the store is closed that day.
type OperatingWindow struct {
	Open  string
	Close string
}

// Store is the store-directory read model consumed during order creation.
type Store struct {
	ID      string
	OwnerID string
	Name    string
	Status  StoreStatus
	// Hours is keyed by time.Weekday.
	Hours map[time.Weekday]OperatingWindow
}

// OpenAt reports whether the store's operating window for the day of t contains t.
func (s Store) OpenAt(t time.Time) bool {
	window, ok := s.Hours[t.Weekday()]
	if !ok || window.Open == "" || window.Close == "" {
		return false
	}
	open, err := time.Parse("15:04", window.Open)
	if err != nil {
		return false
	}
	closeAt, err := time.Parse("15:04", window.Close)
	if err != nil {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	openMinutes := open.Hour()*60 + open.Minute()
	closeMinutes := closeAt.Hour()*60 + closeAt.Minute()
	return minutes >= openMinutes && minutes < closeMinutes
}

// UserProfile is the user-directory read model.
type UserProfile struct {
	ID          string
	DisplayName string
	Email       string
	DeviceToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Pagination carries cursor paging parameters for list queries.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage wraps a page of results together with the next cursor token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// RangeQuery expresses an inclusive-from, exclusive-to range filter.
type RangeQuery[T any] struct {
	From *T
	To   *T
}
