package database

import (
	"context"
	"fmt"
	"time"

	"foodmarket/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderStore struct {
	coll *mongo.Collection
}

func NewOrderStore(db *DB) *OrderStore { return &OrderStore{coll: db.Orders} }

func (s *OrderStore) Create(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	if _, err := s.coll.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *OrderStore) ListByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Order, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"bookedById": buyerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// Cancel moves a placed order of buyerID to canceled. Orders that are not
// found, belong to someone else or are no longer placed yield ErrNotFound.
// Stock is not touched.
func (s *OrderStore) Cancel(ctx context.Context, id, buyerID primitive.ObjectID) (models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o models.Order
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "bookedById": buyerID, "status": models.StatusPlaced},
		bson.M{"$set": bson.M{"status": models.StatusCanceled}},
		opts,
	).Decode(&o)
	return o, notFound(err)
}
