package database

import (
	"context"
	"fmt"

	"foodmarket/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CategoryStore struct {
	coll     *mongo.Collection
	products *ProductStore
}

func NewCategoryStore(db *DB) *CategoryStore {
	return &CategoryStore{coll: db.Categories, products: NewProductStore(db)}
}

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	categories := []models.Category{}
	if err := cur.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

// Chips resolves categories with their member products. A zero categoryID
// returns every category.
func (s *CategoryStore) Chips(ctx context.Context, categoryID primitive.ObjectID) ([]models.Chip, error) {
	var categories []models.Category
	if categoryID.IsZero() {
		all, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		categories = all
	} else {
		var c models.Category
		if err := s.coll.FindOne(ctx, bson.M{"_id": categoryID}).Decode(&c); err != nil {
			return nil, notFound(err)
		}
		categories = []models.Category{c}
	}

	chips := make([]models.Chip, 0, len(categories))
	for _, c := range categories {
		products, err := s.products.FindByIDs(ctx, c.Products)
		if err != nil {
			return nil, err
		}
		chips = append(chips, models.Chip{ID: c.ID, Name: c.Name, Emoji: c.Emoji, Products: products})
	}
	return chips, nil
}

func (s *CategoryStore) AddProduct(ctx context.Context, categoryID, productID primitive.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": categoryID},
		bson.M{"$addToSet": bson.M{"products": productID}},
	)
	if err != nil {
		return fmt.Errorf("add product to category: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CategoryStore) RemoveProduct(ctx context.Context, productID primitive.ObjectID) error {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"products": productID},
		bson.M{"$pull": bson.M{"products": productID}},
	)
	if err != nil {
		return fmt.Errorf("remove product from categories: %w", err)
	}
	return nil
}
