package services

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	defaultNotificationBuffer  = 256
	defaultNotificationTimeout = 10 * time.Second
)

// Notification is a queued user-facing message, optionally mirrored to a
// realtime topic for connected clients.
type Notification struct {
	UserID  string
	Title   string
	Message string
	Topic   string
	Payload []byte
}

// NotificationSink accepts notifications without blocking the caller.
type NotificationSink interface {
	// Enqueue reports false when the queue is full and the notification was dropped.
	Enqueue(n Notification) bool
}

func sellerOrderTopic(sellerID string) string {
	return "orders/" + sellerID
}

// NotificationDispatcherDeps bundles collaborators required to construct the dispatcher.
type NotificationDispatcherDeps struct {
	Notifier       Notifier
	Publisher      TopicPublisher
	Buffer         int
	DeliverTimeout time.Duration
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

// NotificationDispatcher drains queued notifications on a background goroutine
// so a push-provider outage cannot stall the request path.
type NotificationDispatcher struct {
	notifier       Notifier
	publisher      TopicPublisher
	deliverTimeout time.Duration
	logger         func(context.Context, string, map[string]any)

	queue     chan Notification
	done      chan struct{}
	closeOnce sync.Once
}

// NewNotificationDispatcher wires dependencies and starts the drain loop.
func NewNotificationDispatcher(deps NotificationDispatcherDeps) (*NotificationDispatcher, error) {
	if deps.Notifier == nil {
		return nil, errors.New("notification dispatcher: notifier is required")
	}

	buffer := deps.Buffer
	if buffer <= 0 {
		buffer = defaultNotificationBuffer
	}
	timeout := deps.DeliverTimeout
	if timeout <= 0 {
		timeout = defaultNotificationTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	d := &NotificationDispatcher{
		notifier:       deps.Notifier,
		publisher:      deps.Publisher,
		deliverTimeout: timeout,
		logger:         logger,
		queue:          make(chan Notification, buffer),
		done:           make(chan struct{}),
	}
	go d.drain()
	return d, nil
}

// Enqueue queues a notification for background delivery. It never blocks.
func (d *NotificationDispatcher) Enqueue(n Notification) bool {
	select {
	case d.queue <- n:
		return true
	default:
		return false
	}
}

// Close stops accepting notifications and waits for queued ones to be delivered.
func (d *NotificationDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
}

func (d *NotificationDispatcher) drain() {
	defer close(d.done)
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *NotificationDispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.deliverTimeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, n.UserID, n.Title, n.Message); err != nil {
		d.logger(ctx, "notification.push.failed", map[string]any{
			"user":  n.UserID,
			"title": n.Title,
			"error": err.Error(),
		})
	}

	if d.publisher == nil || n.Topic == "" {
		return
	}
	if err := d.publisher.Publish(ctx, n.Topic, n.Payload); err != nil {
		d.logger(ctx, "notification.publish.failed", map[string]any{
			"topic": n.Topic,
			"error": err.Error(),
		})
	}
}
