package push

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"

	domain "github.com/cakehub/api/internal/domain"
)

type stubSender struct {
	sent []*messaging.Message
	err  error
}

func (s *stubSender) Send(_ context.Context, message *messaging.Message) (string, error) {
	s.sent = append(s.sent, message)
	if s.err != nil {
		return "", s.err
	}
	return "msg-1", nil
}

type stubUsers struct {
	findFn func(context.Context, string) (domain.UserProfile, error)
}

func (s *stubUsers) FindByID(ctx context.Context, userID string) (domain.UserProfile, error) {
	return s.findFn(ctx, userID)
}

func TestFCMNotifierSendsToDeviceToken(t *testing.T) {
	sender := &stubSender{}
	notifier, err := NewFCMNotifier(FCMNotifierDeps{
		Sender: sender,
		Users: &stubUsers{
			findFn: func(_ context.Context, id string) (domain.UserProfile, error) {
				return domain.UserProfile{ID: id, DeviceToken: "tok-123"}, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := notifier.Notify(context.Background(), "buyer-1", "Order requested", "hello"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 send got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Token != "tok-123" {
		t.Fatalf("unexpected token %s", msg.Token)
	}
	if msg.Notification == nil || msg.Notification.Title != "Order requested" {
		t.Fatalf("unexpected notification %#v", msg.Notification)
	}
}

func TestFCMNotifierSkipsUsersWithoutToken(t *testing.T) {
	sender := &stubSender{}
	notifier, err := NewFCMNotifier(FCMNotifierDeps{
		Sender: sender,
		Users: &stubUsers{
			findFn: func(_ context.Context, id string) (domain.UserProfile, error) {
				return domain.UserProfile{ID: id}, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := notifier.Notify(context.Background(), "buyer-1", "t", "m"); err != nil {
		t.Fatalf("missing token must not error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no sends got %d", len(sender.sent))
	}
}

func TestFCMNotifierPropagatesSendFailure(t *testing.T) {
	sender := &stubSender{err: errors.New("fcm unavailable")}
	notifier, err := NewFCMNotifier(FCMNotifierDeps{
		Sender: sender,
		Users: &stubUsers{
			findFn: func(_ context.Context, id string) (domain.UserProfile, error) {
				return domain.UserProfile{ID: id, DeviceToken: "tok-123"}, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := notifier.Notify(context.Background(), "buyer-1", "t", "m"); err == nil {
		t.Fatalf("expected send failure to propagate")
	}
}
