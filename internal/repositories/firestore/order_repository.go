package firestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/cakehub/api/internal/domain"
	pfirestore "github.com/cakehub/api/internal/platform/firestore"
	"github.com/cakehub/api/internal/repositories"
)

const (
	ordersCollection = "orders"

	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
)

type orderDocument struct {
	OrderNumber   string `firestore:"orderNumber"`
	CakeID        string `firestore:"cakeId"`
	CakeVariantID string `firestore:"cakeVariantId"`
	BuyerID       string `firestore:"buyerId"`
	SellerID      string `firestore:"sellerId"`
	Quantity      int    `firestore:"quantity"`
	NeedBefore    string `firestore:"needBefore,omitempty"`
	Status        string `firestore:"status"`

	PaymentTrackingID string `firestore:"paymentTrackingId,omitempty"`
	SessionID         string `firestore:"sessionId,omitempty"`

	KnownFor   string `firestore:"knownFor,omitempty"`
	TextOnCake string `firestore:"textOnCake,omitempty"`

	CancelledBy        string `firestore:"cancelledBy,omitempty"`
	CancellationReason string `firestore:"cancellationReason,omitempty"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// OrderRepository implements repositories.OrderRepository backed by Firestore.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	return &OrderRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Insert creates the order document, failing when the id is already taken.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(order.ID))
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, encodeOrderDocument(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// Update overwrites the order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	if _, err := r.base.Set(ctx, strings.TrimSpace(order.ID), encodeOrderDocument(order)); err != nil {
		return err
	}
	return nil
}

// FindByID loads a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrderDocument(doc.ID, doc.Data), nil
}

// FindByPaymentRef resolves an order by payment tracking id or session id,
// falling back to the order id itself when the gateway echoes it.
func (r *OrderRepository) FindByPaymentRef(ctx context.Context, ref string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return domain.Order{}, pfirestore.WrapError("orders.findbypaymentref", errors.New("payment reference is required"))
	}

	for _, field := range []string{"paymentTrackingId", "sessionId"} {
		order, found, err := r.findOneByField(ctx, field, trimmed)
		if err != nil {
			return domain.Order{}, err
		}
		if found {
			return order, nil
		}
	}
	return r.FindByID(ctx, trimmed)
}

func (r *OrderRepository) findOneByField(ctx context.Context, field, value string) (domain.Order, bool, error) {
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where(field, "==", value).Limit(1)
	})
	if err != nil {
		return domain.Order{}, false, err
	}
	if len(docs) == 0 {
		return domain.Order{}, false, nil
	}
	return decodeOrderDocument(docs[0].ID, docs[0].Data), true, nil
}

// List returns orders matching the filter, most recent first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	query := client.Collection(ordersCollection).Query
	if buyerID := strings.TrimSpace(filter.BuyerID); buyerID != "" {
		query = query.Where("buyerId", "==", buyerID)
	}
	if sellerID := strings.TrimSpace(filter.SellerID); sellerID != "" {
		query = query.Where("sellerId", "==", sellerID)
	}
	if statuses := trimmedStatuses(filter.Status); len(statuses) > 0 {
		query = query.Where("status", "in", statuses)
	}
	if filter.DateRange.From != nil {
		query = query.Where("createdAt", ">=", filter.DateRange.From.UTC())
	}
	if filter.DateRange.To != nil {
		query = query.Where("createdAt", "<", filter.DateRange.To.UTC())
	}

	query = query.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)

	limit := filter.PageSize
	if limit <= 0 {
		limit = defaultOrderPageSize
	}
	if limit > maxOrderPageSize {
		limit = maxOrderPageSize
	}
	fetchLimit := limit + 1
	query = query.Limit(fetchLimit)

	if token := strings.TrimSpace(filter.PageToken); token != "" {
		tokenTime, tokenID, err := decodeOrderPageToken(token)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("orders.list: invalid page token: %w", err)
		}
		query = query.StartAfter(tokenTime, tokenID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var orders []domain.Order
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Order]{}, pfirestore.WrapError("orders.list", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("orders.list: decode document %s: %w", snap.Ref.ID, err)
		}
		orders = append(orders, decodeOrderDocument(snap.Ref.ID, doc))
	}

	nextToken := ""
	if len(orders) == fetchLimit {
		last := orders[len(orders)-1]
		nextToken = encodeOrderPageToken(last.CreatedAt, last.ID)
		orders = orders[:len(orders)-1]
	}

	return domain.CursorPage[domain.Order]{
		Items:         orders,
		NextPageToken: nextToken,
	}, nil
}

// ListByCake returns every order referencing the cake in creation order.
func (r *OrderRepository) ListByCake(ctx context.Context, cakeID string) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(cakeID)
	if id == "" {
		return nil, pfirestore.WrapError("orders.listbycake", errors.New("cake id is required"))
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("cakeId", "==", id).OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrderDocument(doc.ID, doc.Data))
	}
	return orders, nil
}

func trimmedStatuses(statuses []string) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func encodeOrderDocument(order domain.Order) orderDocument {
	return orderDocument{
		OrderNumber:        strings.TrimSpace(order.OrderNumber),
		CakeID:             strings.TrimSpace(order.CakeID),
		CakeVariantID:      strings.TrimSpace(order.CakeVariantID),
		BuyerID:            strings.TrimSpace(order.BuyerID),
		SellerID:           strings.TrimSpace(order.SellerID),
		Quantity:           order.Quantity,
		NeedBefore:         strings.TrimSpace(order.NeedBefore),
		Status:             string(order.Status),
		PaymentTrackingID:  strings.TrimSpace(order.PaymentTrackingID),
		SessionID:          strings.TrimSpace(order.SessionID),
		KnownFor:           strings.TrimSpace(order.KnownFor),
		TextOnCake:         order.TextOnCake,
		CancelledBy:        strings.TrimSpace(order.CancelledBy),
		CancellationReason: order.CancellationReason,
		CreatedAt:          order.CreatedAt.UTC(),
		UpdatedAt:          order.UpdatedAt.UTC(),
	}
}

func decodeOrderDocument(id string, doc orderDocument) domain.Order {
	return domain.Order{
		ID:                 id,
		OrderNumber:        doc.OrderNumber,
		CakeID:             doc.CakeID,
		CakeVariantID:      doc.CakeVariantID,
		BuyerID:            doc.BuyerID,
		SellerID:           doc.SellerID,
		Quantity:           doc.Quantity,
		NeedBefore:         doc.NeedBefore,
		Status:             domain.OrderStatus(doc.Status),
		PaymentTrackingID:  doc.PaymentTrackingID,
		SessionID:          doc.SessionID,
		KnownFor:           doc.KnownFor,
		TextOnCake:         doc.TextOnCake,
		CancelledBy:        doc.CancelledBy,
		CancellationReason: doc.CancellationReason,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
}

func encodeOrderPageToken(createdAt time.Time, docID string) string {
	payload := fmt.Sprintf("%s|%s", createdAt.UTC().Format(time.RFC3339Nano), docID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func decodeOrderPageToken(token string) (time.Time, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", err
	}
	parts := strings.SplitN(string(data), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", errors.New("invalid token format")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", err
	}
	return ts, parts[1], nil
}

// Ensure interface compliance.
var _ repositories.OrderRepository = (*OrderRepository)(nil)
