package store

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// settlementStore archives order and fill records so settled swaps survive
// restarts and stay queryable over the API.
type settlementStore struct {
	*mongo.Client
}

const (
	settlementDatabase = "settlementstore"
	orderCollection    = "orders"
	fillCollection     = "fills"
)

func NewSettlementStore(client *mongo.Client) *settlementStore {
	return &settlementStore{client}
}

func (s *settlementStore) Close() {
	_ = s.Client.Disconnect(context.Background())
}
