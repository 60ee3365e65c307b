package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/cakehub/api/internal/domain"
	"github.com/cakehub/api/internal/repositories"
)

type repoErr struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e repoErr) Error() string       { return e.msg }
func (e repoErr) IsNotFound() bool    { return e.notFound }
func (e repoErr) IsConflict() bool    { return e.conflict }
func (e repoErr) IsUnavailable() bool { return e.unavailable }

func notFoundErr(msg string) error {
	return repoErr{msg: msg, notFound: true}
}

type stubOrderRepo struct {
	insertFn     func(context.Context, domain.Order) error
	updateFn     func(context.Context, domain.Order) error
	findFn       func(context.Context, string) (domain.Order, error)
	findByRefFn  func(context.Context, string) (domain.Order, error)
	listFn       func(context.Context, repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
	listByCakeFn func(context.Context, string) ([]domain.Order, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) FindByPaymentRef(ctx context.Context, ref string) (domain.Order, error) {
	if s.findByRefFn != nil {
		return s.findByRefFn(ctx, ref)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.Order]{}, nil
}

func (s *stubOrderRepo) ListByCake(ctx context.Context, cakeID string) ([]domain.Order, error) {
	if s.listByCakeFn != nil {
		return s.listByCakeFn(ctx, cakeID)
	}
	return nil, nil
}

type stubCakeRepo struct {
	findFn        func(context.Context, string) (domain.Cake, error)
	setKnownForFn func(context.Context, string, string) error
}

func (s *stubCakeRepo) FindByID(ctx context.Context, cakeID string) (domain.Cake, error) {
	if s.findFn != nil {
		return s.findFn(ctx, cakeID)
	}
	return domain.Cake{}, errors.New("not implemented")
}

func (s *stubCakeRepo) SetKnownFor(ctx context.Context, cakeID string, tag string) error {
	if s.setKnownForFn != nil {
		return s.setKnownForFn(ctx, cakeID, tag)
	}
	return nil
}

type stubStoreRepo struct {
	findFn func(context.Context, string) (domain.Store, error)
}

func (s *stubStoreRepo) FindByID(ctx context.Context, storeID string) (domain.Store, error) {
	if s.findFn != nil {
		return s.findFn(ctx, storeID)
	}
	return domain.Store{}, errors.New("not implemented")
}

type stubUserRepo struct {
	findFn func(context.Context, string) (domain.UserProfile, error)
}

func (s *stubUserRepo) FindByID(ctx context.Context, userID string) (domain.UserProfile, error) {
	if s.findFn != nil {
		return s.findFn(ctx, userID)
	}
	return domain.UserProfile{ID: userID}, nil
}

type stubCounterRepo struct {
	nextFn func(context.Context, string, int64) (int64, error)
}

func (s *stubCounterRepo) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if s.nextFn != nil {
		return s.nextFn(ctx, counterID, step)
	}
	return 0, nil
}

type stubUnitOfWork struct {
	runFn func(context.Context, func(context.Context) error) error
}

func (s *stubUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.runFn != nil {
		return s.runFn(ctx, fn)
	}
	return fn(ctx)
}

type scheduledJob struct {
	key     string
	payload JobPayload
	delay   time.Duration
}

type stubScheduler struct {
	scheduleFn func(context.Context, string, JobPayload, time.Duration) error
	cancelFn   func(context.Context, string) (bool, error)

	scheduled []scheduledJob
	cancelled []string
}

func (s *stubScheduler) Schedule(ctx context.Context, key string, payload JobPayload, delay time.Duration) error {
	s.scheduled = append(s.scheduled, scheduledJob{key: key, payload: payload, delay: delay})
	if s.scheduleFn != nil {
		return s.scheduleFn(ctx, key, payload, delay)
	}
	return nil
}

func (s *stubScheduler) Cancel(ctx context.Context, key string) (bool, error) {
	s.cancelled = append(s.cancelled, key)
	if s.cancelFn != nil {
		return s.cancelFn(ctx, key)
	}
	return true, nil
}

type captureNotifications struct {
	queued []Notification
	full   bool
}

func (c *captureNotifications) Enqueue(n Notification) bool {
	if c.full {
		return false
	}
	c.queued = append(c.queued, n)
	return true
}

func alwaysOpenStore(id, ownerID string) domain.Store {
	hours := make(map[time.Weekday]domain.OperatingWindow, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		hours[day] = domain.OperatingWindow{Open: "00:00", Close: "23:59"}
	}
	return domain.Store{ID: id, OwnerID: ownerID, Status: domain.StoreStatusApproved, Hours: hours}
}

func testCake() domain.Cake {
	return domain.Cake{
		ID:      "cake-1",
		StoreID: "store-1",
		Name:    "Chocolate Fudge",
		Variants: []domain.CakeVariant{
			{ID: "var-1", Name: "1kg", Price: 1200},
			{ID: "var-2", Name: "2kg", Price: 2200},
		},
	}
}

func newCreateDeps(orders *stubOrderRepo, scheduler *stubScheduler, sink *captureNotifications, now time.Time) OrderServiceDeps {
	// Assigning a nil *captureNotifications directly would make the interface
	// field non-nil, defeating the service's nil check.
	var notifications NotificationSink
	if sink != nil {
		notifications = sink
	}
	return OrderServiceDeps{
		Orders: orders,
		Cakes: &stubCakeRepo{
			findFn: func(_ context.Context, id string) (domain.Cake, error) {
				cake := testCake()
				if id != cake.ID {
					return domain.Cake{}, notFoundErr("cake missing")
				}
				return cake, nil
			},
		},
		Stores: &stubStoreRepo{
			findFn: func(_ context.Context, id string) (domain.Store, error) {
				return alwaysOpenStore(id, "seller-1"), nil
			},
		},
		Users: &stubUserRepo{
			findFn: func(_ context.Context, id string) (domain.UserProfile, error) {
				return domain.UserProfile{ID: id, DisplayName: "User " + id}, nil
			},
		},
		Counters: &stubCounterRepo{
			nextFn: func(context.Context, string, int64) (int64, error) { return 7, nil },
		},
		Scheduler:       scheduler,
		Notifications:   notifications,
		UnitOfWork:      &stubUnitOfWork{},
		AutoCancelAfter: 30 * time.Minute,
		Clock:           func() time.Time { return now },
		IDGenerator:     func() string { return "000TEST" },
	}
}

func TestOrderServiceCreate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)

	inserted := make([]domain.Order, 0, 1)
	orders := &stubOrderRepo{
		insertFn: func(_ context.Context, order domain.Order) error {
			inserted = append(inserted, order)
			return nil
		},
		listByCakeFn: func(context.Context, string) ([]domain.Order, error) {
			return nil, nil
		},
	}
	scheduler := &stubScheduler{}
	sink := &captureNotifications{}

	svc, err := NewOrderService(newCreateDeps(orders, scheduler, sink, now))
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	order, err := svc.Create(ctx, CreateOrderCommand{
		BuyerID:       "buyer-1",
		CakeID:        "cake-1",
		CakeVariantID: "var-2",
		Quantity:      2,
		NeedBefore:    "2026-03-20",
		KnownFor:      "BIRTHDAY",
		TextOnCake:    "Happy Birthday Mia",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if order.ID != "ord_000TEST" {
		t.Fatalf("unexpected order id %s", order.ID)
	}
	if order.OrderNumber != "CH-2026-000007" {
		t.Fatalf("unexpected order number %s", order.OrderNumber)
	}
	if order.Status != domain.OrderStatusRequested {
		t.Fatalf("expected status requested got %s", order.Status)
	}
	if order.SellerID != "seller-1" {
		t.Fatalf("expected derived seller seller-1 got %s", order.SellerID)
	}
	if order.PaymentTrackingID != "" {
		t.Fatalf("expected empty payment tracking id got %s", order.PaymentTrackingID)
	}
	if len(inserted) != 1 {
		t.Fatalf("expected 1 inserted order got %d", len(inserted))
	}

	if len(scheduler.scheduled) != 1 {
		t.Fatalf("expected 1 scheduled job got %d", len(scheduler.scheduled))
	}
	job := scheduler.scheduled[0]
	if job.key != "auto-cancel:ord_000TEST" {
		t.Fatalf("unexpected job key %s", job.key)
	}
	if job.payload.OrderID != order.ID {
		t.Fatalf("unexpected job payload %s", job.payload.OrderID)
	}
	if job.delay != 30*time.Minute {
		t.Fatalf("unexpected job delay %s", job.delay)
	}

	if len(sink.queued) != 2 {
		t.Fatalf("expected buyer and seller notifications got %d", len(sink.queued))
	}
	if sink.queued[0].UserID != "buyer-1" || sink.queued[1].UserID != "seller-1" {
		t.Fatalf("unexpected notification recipients %s %s", sink.queued[0].UserID, sink.queued[1].UserID)
	}
	if sink.queued[1].Topic != "orders/seller-1" {
		t.Fatalf("unexpected seller topic %s", sink.queued[1].Topic)
	}
}

func TestOrderServiceCreateStoreClosed(t *testing.T) {
	ctx := context.Background()
	// Saturday 23:30, outside the store's 09:00-18:00 window.
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

	deps := newCreateDeps(&stubOrderRepo{}, &stubScheduler{}, nil, now)
	deps.Stores = &stubStoreRepo{
		findFn: func(_ context.Context, id string) (domain.Store, error) {
			return domain.Store{
				ID: id, OwnerID: "seller-1", Status: domain.StoreStatusApproved,
				Hours: map[time.Weekday]domain.OperatingWindow{
					time.Saturday: {Open: "09:00", Close: "18:00"},
				},
			}, nil
		},
	}

	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	_, err = svc.Create(ctx, CreateOrderCommand{
		BuyerID: "buyer-1", CakeID: "cake-1", CakeVariantID: "var-1", Quantity: 1,
	})
	if !errors.Is(err, ErrOrderStoreUnavailable) {
		t.Fatalf("expected store unavailable error got %v", err)
	}
}

func TestOrderServiceCreateStoreNotApproved(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)

	deps := newCreateDeps(&stubOrderRepo{}, &stubScheduler{}, nil, now)
	deps.Stores = &stubStoreRepo{
		findFn: func(_ context.Context, id string) (domain.Store, error) {
			store := alwaysOpenStore(id, "seller-1")
			store.Status = domain.StoreStatusSuspended
			return store, nil
		},
	}

	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	_, err = svc.Create(ctx, CreateOrderCommand{
		BuyerID: "buyer-1", CakeID: "cake-1", CakeVariantID: "var-1", Quantity: 1,
	})
	if !errors.Is(err, ErrOrderStoreUnavailable) {
		t.Fatalf("expected store unavailable error got %v", err)
	}
}

func TestOrderServiceCreateUnknownVariant(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)

	svc, err := NewOrderService(newCreateDeps(&stubOrderRepo{}, &stubScheduler{}, nil, now))
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	_, err = svc.Create(ctx, CreateOrderCommand{
		BuyerID: "buyer-1", CakeID: "cake-1", CakeVariantID: "var-99", Quantity: 1,
	})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input error got %v", err)
	}
}

func TestOrderServiceCreateUnknownCake(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)

	svc, err := NewOrderService(newCreateDeps(&stubOrderRepo{}, &stubScheduler{}, nil, now))
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	_, err = svc.Create(ctx, CreateOrderCommand{
		BuyerID: "buyer-1", CakeID: "cake-missing", CakeVariantID: "var-1", Quantity: 1,
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found error got %v", err)
	}
}

func TestOrderServiceCreateRejectsOwnStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)

	svc, err := NewOrderService(newCreateDeps(&stubOrderRepo{}, &stubScheduler{}, nil, now))
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	_, err = svc.Create(ctx, CreateOrderCommand{
		BuyerID: "seller-1", CakeID: "cake-1", CakeVariantID: "var-1", Quantity: 1,
	})
	if !errors.Is(err, ErrOrderUnauthorized) {
		t.Fatalf("expected unauthorized error got %v", err)
	}
}

func TestOrderServiceCreateMissingBuyerIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)

	deps := newCreateDeps(&stubOrderRepo{}, &stubScheduler{}, nil, now)
	deps.Users = &stubUserRepo{
		findFn: func(_ context.Context, id string) (domain.UserProfile, error) {
			if id == "buyer-ghost" {
				return domain.UserProfile{}, notFoundErr("user missing")
			}
			return domain.UserProfile{ID: id}, nil
		},
	}

	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	_, err = svc.Create(ctx, CreateOrderCommand{
		BuyerID: "buyer-ghost", CakeID: "cake-1", CakeVariantID: "var-1", Quantity: 1,
	})
	if !errors.Is(err, ErrOrderUnauthorized) {
		t.Fatalf("expected unauthorized error got %v", err)
	}
}

func TestOrderServiceCreateSurvivesSideEffectFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)

	orders := &stubOrderRepo{
		listByCakeFn: func(context.Context, string) ([]domain.Order, error) {
			return nil, errors.New("listing unavailable")
		},
	}
	scheduler := &stubScheduler{
		scheduleFn: func(context.Context, string, JobPayload, time.Duration) error {
			return errors.New("queue unavailable")
		},
	}
	sink := &captureNotifications{full: true}

	svc, err := NewOrderService(newCreateDeps(orders, scheduler, sink, now))
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	order, err := svc.Create(ctx, CreateOrderCommand{
		BuyerID: "buyer-1", CakeID: "cake-1", CakeVariantID: "var-1", Quantity: 1,
	})
	if err != nil {
		t.Fatalf("create should not fail on side effects: %v", err)
	}
	if order.Status != domain.OrderStatusRequested {
		t.Fatalf("expected requested status got %s", order.Status)
	}
}

func TestOrderServiceKnownForAggregation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)

	prior := []domain.Order{
		{ID: "ord_a", CakeID: "cake-1", KnownFor: "BIRTHDAY"},
		{ID: "ord_b", CakeID: "cake-1", KnownFor: "WEDDING"},
		{ID: "ord_c", CakeID: "cake-1", KnownFor: "WEDDING"},
	}
	orders := &stubOrderRepo{
		listByCakeFn: func(context.Context, string) ([]domain.Order, error) {
			return prior, nil
		},
	}

	var taggedCake, tag string
	deps := newCreateDeps(orders, &stubScheduler{}, nil, now)
	deps.Cakes = &stubCakeRepo{
		findFn: func(context.Context, string) (domain.Cake, error) {
			return testCake(), nil
		},
		setKnownForFn: func(_ context.Context, cakeID string, value string) error {
			taggedCake, tag = cakeID, value
			return nil
		},
	}

	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	// The new BIRTHDAY order ties the counts at 2-2; WEDDING reached that
	// count first in creation order and keeps the lead.
	if _, err := svc.Create(ctx, CreateOrderCommand{
		BuyerID: "buyer-1", CakeID: "cake-1", CakeVariantID: "var-1", Quantity: 1,
		KnownFor: "BIRTHDAY",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if taggedCake != "cake-1" {
		t.Fatalf("expected known-for update on cake-1 got %q", taggedCake)
	}
	if tag != "WEDDING" {
		t.Fatalf("expected tag WEDDING got %q", tag)
	}
}

func TestMostFrequentKnownFor(t *testing.T) {
	cases := []struct {
		name string
		tags []string
		want string
	}{
		{name: "empty", tags: nil, want: ""},
		{name: "single", tags: []string{"BIRTHDAY"}, want: "BIRTHDAY"},
		{name: "majority", tags: []string{"BIRTHDAY", "WEDDING", "WEDDING"}, want: "WEDDING"},
		{name: "tie keeps first to reach count", tags: []string{"BIRTHDAY", "WEDDING", "WEDDING", "BIRTHDAY"}, want: "WEDDING"},
		{name: "blank tags ignored", tags: []string{"", " ", "ANNIVERSARY"}, want: "ANNIVERSARY"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := make([]Order, 0, len(tc.tags))
			for i, tag := range tc.tags {
				orders = append(orders, Order{ID: string(rune('a' + i)), KnownFor: tag})
			}
			if got := mostFrequentKnownFor(orders); got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestOrderServiceGetOrderAuthorization(t *testing.T) {
	ctx := context.Background()
	orders := &stubOrderRepo{
		findFn: func(_ context.Context, id string) (domain.Order, error) {
			return domain.Order{ID: id, BuyerID: "buyer-1", SellerID: "seller-1"}, nil
		},
	}

	svc, err := NewOrderService(newCreateDeps(orders, &stubScheduler{}, nil, time.Now()))
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	if _, err := svc.GetOrder(ctx, "ord_1", "buyer-1"); err != nil {
		t.Fatalf("buyer read: %v", err)
	}
	if _, err := svc.GetOrder(ctx, "ord_1", "seller-1"); err != nil {
		t.Fatalf("seller read: %v", err)
	}
	if _, err := svc.GetOrder(ctx, "ord_1", "stranger"); !errors.Is(err, ErrOrderUnauthorized) {
		t.Fatalf("expected unauthorized error got %v", err)
	}
}

func TestOrderServiceListPlacedAndReceived(t *testing.T) {
	ctx := context.Background()
	var captured repositories.OrderListFilter
	orders := &stubOrderRepo{
		listFn: func(_ context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
			captured = filter
			return domain.CursorPage[domain.Order]{Items: []domain.Order{{ID: "ord_1"}}}, nil
		},
	}

	svc, err := NewOrderService(newCreateDeps(orders, &stubScheduler{}, nil, time.Now()))
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	page, err := svc.ListPlaced(ctx, ListOrdersCommand{
		UserID: "buyer-1",
		Status: []string{string(domain.OrderStatusRequested)},
	})
	if err != nil {
		t.Fatalf("list placed: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item got %d", len(page.Items))
	}
	if captured.BuyerID != "buyer-1" || captured.SellerID != "" {
		t.Fatalf("placed query should filter by buyer, got buyer=%q seller=%q", captured.BuyerID, captured.SellerID)
	}
	if len(captured.Status) != 1 || captured.Status[0] != "REQUESTED" {
		t.Fatalf("unexpected status filter %v", captured.Status)
	}

	if _, err := svc.ListReceived(ctx, ListOrdersCommand{UserID: "seller-1"}); err != nil {
		t.Fatalf("list received: %v", err)
	}
	if captured.SellerID != "seller-1" || captured.BuyerID != "" {
		t.Fatalf("received query should filter by seller, got buyer=%q seller=%q", captured.BuyerID, captured.SellerID)
	}

	if _, err := svc.ListPlaced(ctx, ListOrdersCommand{UserID: "  "}); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input for blank user id got %v", err)
	}
}

func TestOrderServiceCreateValidatesInput(t *testing.T) {
	svc, err := NewOrderService(newCreateDeps(&stubOrderRepo{}, &stubScheduler{}, nil, time.Now()))
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	cases := []CreateOrderCommand{
		{CakeID: "cake-1", CakeVariantID: "var-1", Quantity: 1},
		{BuyerID: "buyer-1", CakeVariantID: "var-1", Quantity: 1},
		{BuyerID: "buyer-1", CakeID: "cake-1", Quantity: 1},
		{BuyerID: "buyer-1", CakeID: "cake-1", CakeVariantID: "var-1"},
		{BuyerID: "buyer-1", CakeID: "cake-1", CakeVariantID: "var-1", Quantity: -2},
	}
	for i, cmd := range cases {
		if _, err := svc.Create(context.Background(), cmd); !errors.Is(err, ErrOrderInvalidInput) {
			t.Fatalf("case %d: expected invalid input got %v", i, err)
		}
	}
}

func TestOrderServiceTrimsFreeText(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)

	var inserted domain.Order
	orders := &stubOrderRepo{
		insertFn: func(_ context.Context, order domain.Order) error {
			inserted = order
			return nil
		},
	}

	svc, err := NewOrderService(newCreateDeps(orders, &stubScheduler{}, nil, now))
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	if _, err := svc.Create(ctx, CreateOrderCommand{
		BuyerID: " buyer-1 ", CakeID: "cake-1", CakeVariantID: "var-1", Quantity: 1,
		KnownFor: "  BIRTHDAY  ", TextOnCake: " Congrats ",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if inserted.KnownFor != "BIRTHDAY" || inserted.TextOnCake != "Congrats" {
		t.Fatalf("free text not trimmed: %q %q", inserted.KnownFor, inserted.TextOnCake)
	}
	if strings.TrimSpace(inserted.BuyerID) != inserted.BuyerID {
		t.Fatalf("buyer id not trimmed: %q", inserted.BuyerID)
	}
}
