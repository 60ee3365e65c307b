package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/cakehub/api/internal/domain"
	"github.com/cakehub/api/internal/repositories"
)

const (
	orderIDPrefix = "ord_"

	orderCreatedBuyerTitle  = "Order requested"
	orderCreatedSellerTitle = "New order request"

	defaultAutoCancelAfter = 24 * time.Hour
)

var (
	// ErrOrderStoreUnavailable indicates the store cannot accept orders right now.
	ErrOrderStoreUnavailable = errors.New("order: store not accepting orders")
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders          repositories.OrderRepository
	Cakes           repositories.CakeRepository
	Stores          repositories.StoreRepository
	Users           repositories.UserRepository
	Counters        repositories.CounterRepository
	Scheduler       DeferredJobScheduler
	Notifications   NotificationSink
	UnitOfWork      repositories.UnitOfWork
	AutoCancelAfter time.Duration
	Clock           func() time.Time
	IDGenerator     func() string
	Logger          func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders          repositories.OrderRepository
	cakes           repositories.CakeRepository
	stores          repositories.StoreRepository
	users           repositories.UserRepository
	counters        repositories.CounterRepository
	scheduler       DeferredJobScheduler
	notifications   NotificationSink
	unitOfWork      repositories.UnitOfWork
	autoCancelAfter time.Duration
	clock           func() time.Time
	newID           func() string
	logger          func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Cakes == nil {
		return nil, errors.New("order service: cake repository is required")
	}
	if deps.Stores == nil {
		return nil, errors.New("order service: store repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("order service: user repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("order service: deferred job scheduler is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	autoCancelAfter := deps.AutoCancelAfter
	if autoCancelAfter <= 0 {
		autoCancelAfter = defaultAutoCancelAfter
	}

	return &orderService{
		orders:          deps.Orders,
		cakes:           deps.Cakes,
		stores:          deps.Stores,
		users:           deps.Users,
		counters:        deps.Counters,
		scheduler:       deps.Scheduler,
		notifications:   deps.Notifications,
		unitOfWork:      unit,
		autoCancelAfter: autoCancelAfter,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	buyerID := strings.TrimSpace(cmd.BuyerID)
	cakeID := strings.TrimSpace(cmd.CakeID)
	variantID := strings.TrimSpace(cmd.CakeVariantID)

	if buyerID == "" {
		return Order{}, fmt.Errorf("%w: buyer id is required", ErrOrderInvalidInput)
	}
	if cakeID == "" {
		return Order{}, fmt.Errorf("%w: cake id is required", ErrOrderInvalidInput)
	}
	if variantID == "" {
		return Order{}, fmt.Errorf("%w: cake variant id is required", ErrOrderInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return Order{}, fmt.Errorf("%w: quantity must be positive", ErrOrderInvalidInput)
	}

	cake, err := s.cakes.FindByID(ctx, cakeID)
	if err != nil {
		return Order{}, mapOrderRepositoryError(err)
	}

	now := s.now()

	store, err := s.stores.FindByID(ctx, cake.StoreID)
	if err != nil {
		return Order{}, mapOrderRepositoryError(err)
	}
	if store.Status != domain.StoreStatusApproved {
		return Order{}, fmt.Errorf("%w: store %s is %s", ErrOrderStoreUnavailable, store.ID, store.Status)
	}
	if !store.OpenAt(now) {
		return Order{}, fmt.Errorf("%w: store %s is closed", ErrOrderStoreUnavailable, store.ID)
	}

	if _, ok := cake.Variant(variantID); !ok {
		return Order{}, fmt.Errorf("%w: cake %s has no variant %s", ErrOrderInvalidInput, cake.ID, variantID)
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		return Order{}, mapUserLookupError(err)
	}
	seller, err := s.users.FindByID(ctx, store.OwnerID)
	if err != nil {
		return Order{}, mapUserLookupError(err)
	}
	if buyer.ID == seller.ID {
		return Order{}, fmt.Errorf("%w: buyer cannot order from their own store", ErrOrderUnauthorized)
	}

	number, err := s.generateOrderNumber(ctx, now)
	if err != nil {
		return Order{}, err
	}

	order := Order{
		ID:            s.nextOrderID(),
		OrderNumber:   number,
		CakeID:        cake.ID,
		CakeVariantID: variantID,
		BuyerID:       buyer.ID,
		SellerID:      seller.ID,
		Quantity:      cmd.Quantity,
		NeedBefore:    strings.TrimSpace(cmd.NeedBefore),
		Status:        domain.OrderStatusRequested,
		KnownFor:      strings.TrimSpace(cmd.KnownFor),
		TextOnCake:    strings.TrimSpace(cmd.TextOnCake),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return mapOrderRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	// The remaining steps are best effort. The order exists; a failure in
	// aggregation, notification, or scheduling must not undo that.
	s.aggregateKnownFor(ctx, cake.ID, order)
	s.notifyOrderCreated(ctx, order, buyer, seller)

	if err := s.scheduler.Schedule(ctx, autoCancelJobKey(order.ID), JobPayload{OrderID: order.ID}, s.autoCancelAfter); err != nil {
		s.logger(ctx, "order.autocancel.schedule.failed", map[string]any{
			"order": order.ID,
			"error": err.Error(),
		})
	}

	s.logger(ctx, "order.created", map[string]any{
		"order":  order.ID,
		"number": order.OrderNumber,
		"buyer":  order.BuyerID,
		"seller": order.SellerID,
	})

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string, actorID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	actorID = strings.TrimSpace(actorID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if actorID == "" {
		return Order{}, fmt.Errorf("%w: acting user id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, mapOrderRepositoryError(err)
	}
	if actorID != order.BuyerID && actorID != order.SellerID {
		return Order{}, fmt.Errorf("%w: user %s does not belong to order %s", ErrOrderUnauthorized, actorID, order.ID)
	}
	return order, nil
}

func (s *orderService) ListPlaced(ctx context.Context, cmd ListOrdersCommand) (domain.CursorPage[Order], error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return domain.CursorPage[Order]{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	filter := buildOrderListFilter(cmd)
	filter.BuyerID = userID
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, mapOrderRepositoryError(err)
	}
	return page, nil
}

func (s *orderService) ListReceived(ctx context.Context, cmd ListOrdersCommand) (domain.CursorPage[Order], error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return domain.CursorPage[Order]{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	filter := buildOrderListFilter(cmd)
	filter.SellerID = userID
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, mapOrderRepositoryError(err)
	}
	return page, nil
}

// aggregateKnownFor recomputes the cake's most frequent occasion tag across
// every order for the cake, the new one included. Ties keep the tag that
// reached the winning count first in creation order.
func (s *orderService) aggregateKnownFor(ctx context.Context, cakeID string, created Order) {
	history, err := s.orders.ListByCake(ctx, cakeID)
	if err != nil {
		s.logger(ctx, "order.knownfor.list.failed", map[string]any{
			"cake":  cakeID,
			"error": err.Error(),
		})
		return
	}

	// ListByCake may or may not observe the freshly inserted order yet.
	seen := false
	for _, o := range history {
		if o.ID == created.ID {
			seen = true
			break
		}
	}
	if !seen {
		history = append(history, created)
	}

	tag := mostFrequentKnownFor(history)
	if tag == "" {
		return
	}

	if err := s.cakes.SetKnownFor(ctx, cakeID, tag); err != nil {
		s.logger(ctx, "order.knownfor.update.failed", map[string]any{
			"cake":  cakeID,
			"tag":   tag,
			"error": err.Error(),
		})
		return
	}

	s.logger(ctx, "order.knownfor.updated", map[string]any{"cake": cakeID, "tag": tag})
}

func mostFrequentKnownFor(orders []Order) string {
	counts := make(map[string]int, len(orders))
	best := ""
	bestCount := 0
	for _, o := range orders {
		tag := strings.TrimSpace(o.KnownFor)
		if tag == "" {
			continue
		}
		counts[tag]++
		if counts[tag] > bestCount {
			best = tag
			bestCount = counts[tag]
		}
	}
	return best
}

func (s *orderService) notifyOrderCreated(ctx context.Context, order Order, buyer, seller UserProfile) {
	if s.notifications == nil {
		return
	}

	buyerMsg := fmt.Sprintf("Your request %s was sent to %s.", order.OrderNumber, seller.DisplayName)
	if !s.notifications.Enqueue(Notification{
		UserID:  buyer.ID,
		Title:   orderCreatedBuyerTitle,
		Message: buyerMsg,
	}) {
		s.logger(ctx, "order.notification.dropped", map[string]any{"order": order.ID, "user": buyer.ID})
	}

	sellerMsg := fmt.Sprintf("%s requested %d x cake %s.", buyer.DisplayName, order.Quantity, order.CakeID)
	if !s.notifications.Enqueue(Notification{
		UserID:  seller.ID,
		Title:   orderCreatedSellerTitle,
		Message: sellerMsg,
		Topic:   sellerOrderTopic(seller.ID),
		Payload: []byte(order.ID),
	}) {
		s.logger(ctx, "order.notification.dropped", map[string]any{"order": order.ID, "user": seller.ID})
	}
}

func buildOrderListFilter(cmd ListOrdersCommand) repositories.OrderListFilter {
	filter := repositories.OrderListFilter{
		Status:     append([]string(nil), cmd.Status...),
		Pagination: cmd.Pagination,
	}
	filter.DateRange = domain.RangeQuery[time.Time]{From: cmd.CreatedAfter, To: cmd.CreatedBefore}
	return filter
}

func (s *orderService) generateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, "orders", 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CH-%04d-%06d", now.Year(), seq), nil
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) nextOrderID() string {
	return orderIDPrefix + s.newID()
}

// mapUserLookupError turns a missing buyer or seller into an authorization
// failure rather than a plain not-found, matching the ownership semantics
// of order access.
func mapUserLookupError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrOrderUnauthorized, err)
	}
	return mapOrderRepositoryError(err)
}
