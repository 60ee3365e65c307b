package jobs

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPubSubTopicPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubTopicPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubTopicPublisher: %v", err)
	}

	if err := publisher.Publish(ctx, "orders/seller-1", []byte("ord_1")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if got := string(messages[0].Data); got != "ord_1" {
		t.Fatalf("unexpected payload %q", got)
	}
	if attr := messages[0].Attributes["channel"]; attr != "orders/seller-1" {
		t.Fatalf("expected channel attribute, got %q", attr)
	}

	if err := publisher.Publish(ctx, "   ", nil); err == nil {
		t.Fatalf("expected error for blank channel")
	}
}
