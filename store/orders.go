package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Order is the archived form of an engine order.
type Order struct {
	ID          string `bson:"_id,omitempty"`
	Sender      string
	Receiver    string
	Hashlock    string
	Secret      string
	Total       string
	Remaining   string
	Status      string
	Stage       string
	CrossChain  bool
	DstChainID  uint32
	WithdrawnBy string
	CancelledBy string
	CreatedAt   int64
	SettledAt   int64
}

type OrderOption func(*orderFilter)

type orderFilter struct {
	status   string
	sender   string
	hashlock string
}

func FilterByStatus(status string) OrderOption {
	return func(f *orderFilter) {
		f.status = status
	}
}

func FilterBySender(sender string) OrderOption {
	return func(f *orderFilter) {
		f.sender = sender
	}
}

func FilterByHashlock(hashlock string) OrderOption {
	return func(f *orderFilter) {
		f.hashlock = hashlock
	}
}

func (s *settlementStore) GetOrder(ctx context.Context, id string) (*Order, error) {
	ordersCollection := s.Database(settlementDatabase).Collection(orderCollection)

	var order Order
	err := ordersCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (s *settlementStore) GetOrders(ctx context.Context, opts ...OrderOption) ([]*Order, error) {
	ordersCollection := s.Database(settlementDatabase).Collection(orderCollection)

	var filter orderFilter
	for _, opt := range opts {
		opt(&filter)
	}

	query := bson.M{}
	if filter.status != "" {
		query["status"] = filter.status
	}
	if filter.sender != "" {
		query["sender"] = filter.sender
	}
	if filter.hashlock != "" {
		query["hashlock"] = filter.hashlock
	}

	cursor, err := ordersCollection.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	var orders []*Order
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	return orders, nil
}

func (s *settlementStore) SaveOrder(ctx context.Context, order *Order) error {
	ordersCollection := s.Database(settlementDatabase).Collection(orderCollection)
	upsert := true
	_, err := ordersCollection.ReplaceOne(ctx, bson.M{"_id": order.ID}, order, &options.ReplaceOptions{Upsert: &upsert})
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	return nil
}

func (s *settlementStore) SaveManyOrders(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	for _, order := range orders {
		if err := s.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to save many orders: %w", err)
		}
	}

	return nil
}

func (s *settlementStore) DeleteOrder(ctx context.Context, id string) error {
	ordersCollection := s.Database(settlementDatabase).Collection(orderCollection)
	_, err := ordersCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return nil
}
