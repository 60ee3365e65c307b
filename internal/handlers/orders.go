package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/cakehub/api/internal/domain"
	"github.com/cakehub/api/internal/platform/auth"
	"github.com/cakehub/api/internal/platform/httpx"
	"github.com/cakehub/api/internal/platform/textutil"
	"github.com/cakehub/api/internal/services"
)

const (
	defaultListPageSize = 20
	maxListPageSize     = 100
	maxOrderBodySize    = 8 * 1024
)

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body too large")
)

type createOrderRequest struct {
	CakeID        string `json:"cake_id"`
	CakeVariantID string `json:"cake_variant_id"`
	Quantity      int    `json:"quantity"`
	NeedBefore    string `json:"need_before"`
	KnownFor      string `json:"known_for"`
	TextOnCake    string `json:"text_on_cake"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderHandlers exposes the order creation, lifecycle, and read endpoints.
type OrderHandlers struct {
	authn     *auth.Authenticator
	orders    services.OrderService
	lifecycle services.OrderStateMachine
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, lifecycle services.OrderStateMachine) *OrderHandlers {
	return &OrderHandlers{
		authn:     authn,
		orders:    orders,
		lifecycle: lifecycle,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/", h.createOrder)
	r.Get("/placed", h.listPlaced)
	r.Get("/received", h.listReceived)
	r.Get("/{orderID}", h.getOrder)

	transitions := map[string]domain.OrderStatus{
		"confirm":            domain.OrderStatusWaitingToPay,
		"ordered":            domain.OrderStatusOrdered,
		"preparing":          domain.OrderStatusPreparing,
		"packed":             domain.OrderStatusPacked,
		"waiting-for-pickup": domain.OrderStatusWaitingForPickup,
		"delivered":          domain.OrderStatusDelivered,
		"refund":             domain.OrderStatusRefundInitiated,
	}
	for action, target := range transitions {
		r.Post("/{orderID}:"+action, h.transitionOrder(target))
	}
	r.Post("/{orderID}:cancel", h.cancelOrder)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actorID, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	cmd := services.CreateOrderCommand{
		BuyerID:       actorID,
		CakeID:        strings.TrimSpace(req.CakeID),
		CakeVariantID: strings.TrimSpace(req.CakeVariantID),
		Quantity:      req.Quantity,
		NeedBefore:    strings.TrimSpace(req.NeedBefore),
		KnownFor:      textutil.CleanTag(req.KnownFor),
		TextOnCake:    textutil.CleanText(req.TextOnCake),
	}

	order, err := h.orders.Create(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actorID, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID, actorID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) listPlaced(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, func(ctx context.Context, cmd services.ListOrdersCommand) (domain.CursorPage[services.Order], error) {
		return h.orders.ListPlaced(ctx, cmd)
	})
}

func (h *OrderHandlers) listReceived(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, func(ctx context.Context, cmd services.ListOrdersCommand) (domain.CursorPage[services.Order], error) {
		return h.orders.ListReceived(ctx, cmd)
	})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request, list func(context.Context, services.ListOrdersCommand) (domain.CursorPage[services.Order], error)) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actorID, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	query := r.URL.Query()
	cmd := services.ListOrdersCommand{
		UserID: actorID,
		Status: parseFilterValues(query["status"]),
	}

	if raw := strings.TrimSpace(query.Get("created_after")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_after must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		cmd.CreatedAfter = &ts
	}
	if raw := strings.TrimSpace(query.Get("created_before")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_before must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		cmd.CreatedBefore = &ts
	}

	pageSize := defaultListPageSize
	if sizeRaw := strings.TrimSpace(query.Get("page_size")); sizeRaw != "" {
		size, err := strconv.Atoi(sizeRaw)
		if err != nil || size <= 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "page_size must be a positive integer", http.StatusBadRequest))
			return
		}
		if size > maxListPageSize {
			size = maxListPageSize
		}
		pageSize = size
	}
	cmd.Pagination = services.Pagination{
		PageSize:  pageSize,
		PageToken: strings.TrimSpace(query.Get("page_token")),
	}

	page, err := list(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *OrderHandlers) transitionOrder(target domain.OrderStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if h.lifecycle == nil {
			httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
			return
		}

		actorID, ok := requireIdentity(ctx, w)
		if !ok {
			return
		}

		orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
		if orderID == "" {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
			return
		}

		order, err := h.lifecycle.Transition(ctx, services.TransitionOrderCommand{
			OrderID: orderID,
			ActorID: actorID,
			Target:  target,
		})
		if err != nil {
			writeOrderError(ctx, w, err)
			return
		}
		writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
	}
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.lifecycle == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actorID, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req cancelOrderRequest
	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(ctx, w, err)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
			return
		}
	}

	order, err := h.lifecycle.Transition(ctx, services.TransitionOrderCommand{
		OrderID: orderID,
		ActorID: actorID,
		Target:  domain.OrderStatusCancelled,
		Reason:  textutil.CleanText(req.Reason),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

type orderListResponse struct {
	Items         []orderPayload `json:"items"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	ID                 string `json:"id"`
	OrderNumber        string `json:"order_number"`
	CakeID             string `json:"cake_id"`
	CakeVariantID      string `json:"cake_variant_id"`
	BuyerID            string `json:"buyer_id"`
	SellerID           string `json:"seller_id"`
	Quantity           int    `json:"quantity"`
	NeedBefore         string `json:"need_before,omitempty"`
	Status             string `json:"status"`
	KnownFor           string `json:"known_for,omitempty"`
	TextOnCake         string `json:"text_on_cake,omitempty"`
	CancelledBy        string `json:"cancelled_by,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

func buildOrderPayload(order services.Order) orderPayload {
	return orderPayload{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		CakeID:             order.CakeID,
		CakeVariantID:      order.CakeVariantID,
		BuyerID:            order.BuyerID,
		SellerID:           order.SellerID,
		Quantity:           order.Quantity,
		NeedBefore:         order.NeedBefore,
		Status:             string(order.Status),
		KnownFor:           order.KnownFor,
		TextOnCake:         order.TextOnCake,
		CancelledBy:        order.CancelledBy,
		CancellationReason: order.CancellationReason,
		CreatedAt:          formatTime(order.CreatedAt),
		UpdatedAt:          formatTime(order.UpdatedAt),
	}
}

func requireIdentity(ctx context.Context, w http.ResponseWriter) (string, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return "", false
	}
	return strings.TrimSpace(identity.UID), true
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderUnauthorized):
		httpx.WriteError(ctx, w, httpx.NewError("order_forbidden", "not allowed to act on this order", http.StatusForbidden))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderStoreUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_store_unavailable", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxOrderBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func parseFilterValues(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	filters := make([]string, 0, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			trimmed := strings.ToUpper(strings.TrimSpace(part))
			if trimmed == "" {
				continue
			}
			if _, exists := seen[trimmed]; exists {
				continue
			}
			seen[trimmed] = struct{}{}
			filters = append(filters, trimmed)
		}
	}
	return filters
}

func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("must be RFC3339 timestamp")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
