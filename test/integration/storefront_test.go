package integration

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invapp "github.com/tanakrit-dev/charity-storefront/internal/inventory/application"
	invpg "github.com/tanakrit-dev/charity-storefront/internal/inventory/infrastructure/postgres"
	orderapp "github.com/tanakrit-dev/charity-storefront/internal/order/application"
	orderdomain "github.com/tanakrit-dev/charity-storefront/internal/order/domain"
	orderpg "github.com/tanakrit-dev/charity-storefront/internal/order/infrastructure/postgres"
	"github.com/tanakrit-dev/charity-storefront/pkg/idempotency"
	"github.com/tanakrit-dev/charity-storefront/pkg/logging"
	"github.com/tanakrit-dev/charity-storefront/pkg/outbox"
)

// TestOrderLifecycle drives one order through checkout, slip verification
// and shipping against real postgres, redis and kafka, then checks that the
// outbox relay delivered the events.
func TestOrderLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	defer env.Teardown(ctx)

	log := logging.New("error")

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	defer pool.Close()

	stockRepo := invpg.NewRepository(log, pool)
	orderRepo := orderpg.NewRepository(log, pool)
	require.NoError(t, stockRepo.EnsureSchema(ctx))
	require.NoError(t, orderRepo.EnsureSchema(ctx))

	opt, err := goredis.ParseURL(env.RedisAddr)
	require.NoError(t, err)
	rdb := goredis.NewClient(opt)
	defer rdb.Close()

	ledger := invapp.NewService(log, stockRepo)
	orders := orderapp.NewService(log, orderRepo, ledger, idempotency.NewStore(rdb, time.Hour))

	require.NoError(t, stockRepo.SetAbsolute(ctx, "p1", "M", 5))

	const topic = "storefront.events.test"
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(env.KAddr...),
		Balancer:               &kafkago.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool), outbox.NewDispatcher(log, writer, topic), "it-relay")
	go func() { _ = relay.Run(relayCtx) }()

	o, err := orders.Checkout(ctx, orderapp.CheckoutRequest{
		CustomerName: "Somchai",
		Phone:        "0812345678",
		Address:      "99 Moo 4, Sisaket",
		IsShipping:   true,
		Items: []orderdomain.OrderLine{{
			ProductID: "p1", ProductName: "Charity Tee", Size: "M", Quantity: 2, PriceCents: 20000,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPendingPayment, o.Status)

	_, err = orders.AttachPaymentProof(ctx, o.ID, "/slips/x.jpg")
	require.NoError(t, err)

	updated, err := orders.UpdateStatus(ctx, o.ID, orderdomain.StatusShipping)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusShipping, updated.Status)

	qty, err := ledger.GetQuantity(ctx, "p1", "M")
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     env.KAddr,
		Topic:       topic,
		GroupID:     "storefront-it",
		StartOffset: kafkago.FirstOffset,
	})
	defer reader.Close()

	readCtx, cancelRead := context.WithTimeout(ctx, time.Minute)
	defer cancelRead()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "relay did not deliver the outbox event")

	assert.Equal(t, o.ID, string(msg.Key))
	var eventType string
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			eventType = string(h.Value)
		}
	}
	assert.Equal(t, "OrderCreated", eventType)
}
