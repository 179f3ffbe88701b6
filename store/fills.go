package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fill is the archived form of an engine fill.
type Fill struct {
	ID        string `bson:"_id,omitempty"`
	OrderID   string
	Filler    string
	Amount    string
	Status    string
	CreatedAt int64
}

type FillOption func(*fillFilter)

type fillFilter struct {
	orderID string
	filler  string
}

func FilterByOrder(orderID string) FillOption {
	return func(f *fillFilter) {
		f.orderID = orderID
	}
}

func FilterByFiller(filler string) FillOption {
	return func(f *fillFilter) {
		f.filler = filler
	}
}

func (s *settlementStore) GetFills(ctx context.Context, opts ...FillOption) ([]*Fill, error) {
	fillsCollection := s.Database(settlementDatabase).Collection(fillCollection)

	var filter fillFilter
	for _, opt := range opts {
		opt(&filter)
	}

	query := bson.M{}
	if filter.orderID != "" {
		query["orderid"] = filter.orderID
	}
	if filter.filler != "" {
		query["filler"] = filter.filler
	}

	cursor, err := fillsCollection.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get fills: %w", err)
	}

	var fills []*Fill
	if err = cursor.All(ctx, &fills); err != nil {
		return nil, fmt.Errorf("failed to get fills: %w", err)
	}

	return fills, nil
}

func (s *settlementStore) SaveFill(ctx context.Context, fill *Fill) error {
	fillsCollection := s.Database(settlementDatabase).Collection(fillCollection)
	upsert := true
	_, err := fillsCollection.ReplaceOne(ctx, bson.M{"_id": fill.ID}, fill, &options.ReplaceOptions{Upsert: &upsert})
	if err != nil {
		return fmt.Errorf("failed to save fill: %w", err)
	}

	return nil
}
