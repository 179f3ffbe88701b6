package store_test

import (
	"context"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fusionswap/settlement-engine/store"
)

func TestSettlementStore(t *testing.T) {
	// Create a new Docker pool
	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	// Start a new MongoDB container
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "4.2",
		Env:        []string{},
	}, func(config *docker.HostConfig) {
		// Set AutoRemove to true so that stopped container gets deleted
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)

	defer func() {
		require.NoError(t, pool.Purge(resource))
	}()

	var client *mongo.Client

	ctx := context.Background()

	err = pool.Retry(func() error {
		url := "mongodb://localhost:" + resource.GetPort("27017/tcp")
		client, err = mongo.Connect(ctx, options.Client().ApplyURI(url))
		if err != nil {
			return err
		}
		return client.Ping(ctx, nil)
	})
	require.NoError(t, err)

	t.Run("test order archiving", func(t *testing.T) {
		s := store.NewSettlementStore(client)
		order := &store.Order{
			ID:        "order_1",
			Sender:    "alice",
			Receiver:  "bob",
			Hashlock:  "aa11",
			Total:     "10000adym",
			Remaining: "10000adym",
			Status:    "open",
			Stage:     "taker_exclusive",
			CreatedAt: 1717243200,
		}

		err = s.SaveOrder(ctx, order)
		require.NoError(t, err)

		o, err := s.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, order, o)
	})

	t.Run("test order re-archiving updates in place", func(t *testing.T) {
		s := store.NewSettlementStore(client)
		order := &store.Order{
			ID:     "order_1",
			Sender: "alice",
			Status: "completed",
		}

		err = s.SaveOrder(ctx, order)
		require.NoError(t, err)

		o, err := s.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, "completed", o.Status)
	})

	t.Run("test order retrieval by status", func(t *testing.T) {
		s := store.NewSettlementStore(client)
		order := &store.Order{
			ID:     "order_2",
			Sender: "alice",
			Status: "cancelled",
		}

		err = s.SaveOrder(ctx, order)
		require.NoError(t, err)

		o, err := s.GetOrders(ctx, store.FilterByStatus("cancelled"))
		require.NoError(t, err)
		require.Len(t, o, 1)
		require.Equal(t, order, o[0])
	})

	t.Run("test fill archiving and retrieval by order", func(t *testing.T) {
		s := store.NewSettlementStore(client)
		fill := &store.Fill{
			ID:      "fill_1",
			OrderID: "order_1",
			Filler:  "bob",
			Amount:  "4000adym",
			Status:  "completed",
		}

		err = s.SaveFill(ctx, fill)
		require.NoError(t, err)

		fills, err := s.GetFills(ctx, store.FilterByOrder("order_1"))
		require.NoError(t, err)
		require.Len(t, fills, 1)
		require.Equal(t, fill, fills[0])
	})

	t.Run("test missing order returns nil", func(t *testing.T) {
		s := store.NewSettlementStore(client)
		o, err := s.GetOrder(ctx, "order_404")
		require.NoError(t, err)
		require.Nil(t, o)
	})
}
