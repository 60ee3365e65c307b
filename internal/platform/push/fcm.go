package push

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/cakehub/api/internal/repositories"
)

const defaultSendTimeout = 10 * time.Second

// MessageSender is the slice of the FCM client the notifier uses.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMNotifier delivers push notifications through Firebase Cloud Messaging,
// resolving device tokens from the user directory.
type FCMNotifier struct {
	sender  MessageSender
	users   repositories.UserRepository
	timeout time.Duration
	logger  func(ctx context.Context, event string, fields map[string]any)
}

// FCMNotifierDeps bundles collaborators required to construct the notifier.
type FCMNotifierDeps struct {
	Sender      MessageSender
	Users       repositories.UserRepository
	SendTimeout time.Duration
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// NewFCMNotifier wires dependencies into an FCMNotifier.
func NewFCMNotifier(deps FCMNotifierDeps) (*FCMNotifier, error) {
	if deps.Sender == nil {
		return nil, errors.New("fcm notifier: message sender is required")
	}
	if deps.Users == nil {
		return nil, errors.New("fcm notifier: user repository is required")
	}

	timeout := deps.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &FCMNotifier{
		sender:  deps.Sender,
		users:   deps.Users,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// NewMessagingClient initialises the Firebase Admin SDK messaging client.
func NewMessagingClient(ctx context.Context, projectID, credentialsFile string) (*messaging.Client, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("fcm: project id is required")
	}

	var clientOpts []option.ClientOption
	if credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase messaging client: %w", err)
	}
	return client, nil
}

// Notify sends a push notification to the user's registered device. Users
// without a device token are skipped silently; that is a normal state, not a
// delivery failure.
func (n *FCMNotifier) Notify(ctx context.Context, userID, title, message string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("fcm notifier: user id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	user, err := n.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("fcm notifier: resolve user %s: %w", userID, err)
	}
	if user.DeviceToken == "" {
		n.logger(ctx, "push.token.missing", map[string]any{"user": userID})
		return nil
	}

	id, err := n.sender.Send(ctx, &messaging.Message{
		Token: user.DeviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  message,
		},
	})
	if err != nil {
		return fmt.Errorf("fcm notifier: send to %s: %w", userID, err)
	}

	n.logger(ctx, "push.sent", map[string]any{"user": userID, "message": id})
	return nil
}
