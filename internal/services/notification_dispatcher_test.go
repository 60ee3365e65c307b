package services

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, userID, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, userID+"|"+title+"|"+message)
	return n.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func TestNotificationDispatcherDeliversQueuedNotifications(t *testing.T) {
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}

	d, err := NewNotificationDispatcher(NotificationDispatcherDeps{
		Notifier:  notifier,
		Publisher: publisher,
	})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	if !d.Enqueue(Notification{UserID: "buyer-1", Title: "Order requested", Message: "hi"}) {
		t.Fatalf("enqueue rejected")
	}
	if !d.Enqueue(Notification{UserID: "seller-1", Title: "New order request", Message: "hi", Topic: "orders/seller-1"}) {
		t.Fatalf("enqueue rejected")
	}
	d.Close()

	if len(notifier.calls) != 2 {
		t.Fatalf("expected 2 deliveries got %d", len(notifier.calls))
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "orders/seller-1" {
		t.Fatalf("expected one topic publish got %v", publisher.topics)
	}
}

func TestNotificationDispatcherFullQueueDrops(t *testing.T) {
	block := make(chan struct{})
	notifier := &blockingNotifier{release: block, started: make(chan struct{})}

	d, err := NewNotificationDispatcher(NotificationDispatcherDeps{
		Notifier: notifier,
		Buffer:   1,
	})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	// First notification occupies the worker, second fills the buffer.
	d.Enqueue(Notification{UserID: "u1"})
	<-notifier.started
	d.Enqueue(Notification{UserID: "u2"})

	if d.Enqueue(Notification{UserID: "u3"}) {
		t.Fatalf("expected drop when queue is full")
	}

	close(block)
	d.Close()
}

func TestNotificationDispatcherSurvivesDeliveryErrors(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("push provider down")}
	publisher := &recordingPublisher{err: errors.New("broker down")}

	d, err := NewNotificationDispatcher(NotificationDispatcherDeps{
		Notifier:  notifier,
		Publisher: publisher,
	})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	d.Enqueue(Notification{UserID: "u1", Topic: "orders/u1"})
	d.Close()

	if len(notifier.calls) != 1 {
		t.Fatalf("delivery should have been attempted")
	}
}

type blockingNotifier struct {
	release <-chan struct{}
	started chan struct{}
	once    sync.Once
}

func (n *blockingNotifier) Notify(context.Context, string, string, string) error {
	n.once.Do(func() {
		if n.started != nil {
			close(n.started)
		}
	})
	<-n.release
	return nil
}
