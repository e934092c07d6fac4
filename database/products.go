package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"foodmarket/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductFilter narrows a product listing. Zero values are ignored.
type ProductFilter struct {
	Name          string
	SellerID      primitive.ObjectID
	ExcludeSeller primitive.ObjectID
	InStockOnly   bool
}

func (f ProductFilter) match() bson.M {
	m := bson.M{}
	if f.Name != "" {
		m["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Name), Options: "i"}
	}
	switch {
	case !f.SellerID.IsZero():
		m["sellerId"] = f.SellerID
	case !f.ExcludeSeller.IsZero():
		m["sellerId"] = bson.M{"$ne": f.ExcludeSeller}
	}
	if f.InStockOnly {
		m["availableQuantity"] = bson.M{"$gt": 0}
	}
	return m
}

type ProductStore struct {
	coll *mongo.Collection
}

func NewProductStore(db *DB) *ProductStore { return &ProductStore{coll: db.Products} }

// populate resolves the category and seller references of matched products.
func populate(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from": "categories", "localField": "categoryId", "foreignField": "_id", "as": "category",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$category", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "users", "localField": "sellerId", "foreignField": "_id", "as": "seller",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$seller", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"category.products":  0,
			"seller.password":    0,
			"seller.email":       0,
			"seller.preferences": 0,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
}

func (s *ProductStore) aggregate(ctx context.Context, match bson.M) ([]models.Product, error) {
	cur, err := s.coll.Aggregate(ctx, populate(match))
	if err != nil {
		return nil, fmt.Errorf("aggregate products: %w", err)
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (s *ProductStore) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	return s.aggregate(ctx, f.match())
}

// FindByIDs returns the products in the order of ids; unknown ids are skipped.
func (s *ProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	found, err := s.aggregate(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return OrderByIDs(found, ids), nil
}

func (s *ProductStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var p models.Product
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	return p, notFound(err)
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	now := time.Now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	p.Category, p.Seller = nil, nil
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Delete removes a product owned by sellerID.
func (s *ProductStore) Delete(ctx context.Context, id, sellerID primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "sellerId": sellerID})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAvailableQuantity overwrites the stock level. It is a plain $set, not a
// conditional decrement: the caller computes the new value.
func (s *ProductStore) SetAvailableQuantity(ctx context.Context, id primitive.ObjectID, qty int) (models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"availableQuantity": qty, "updatedAt": time.Now()}},
		opts,
	).Decode(&p)
	return p, notFound(err)
}

// ProductUpdate lists the seller-editable fields; nil fields are left alone.
type ProductUpdate struct {
	Name               *string
	OriginalPrice      *float64
	DiscountedPrice    *float64
	DiscountPercentage *float64
	AvailableQuantity  *int
}

func (u ProductUpdate) set(now time.Time) bson.M {
	m := bson.M{"updatedAt": now}
	if u.Name != nil {
		m["name"] = *u.Name
	}
	if u.OriginalPrice != nil {
		m["originalPrice"] = *u.OriginalPrice
	}
	if u.DiscountedPrice != nil {
		m["discountedPrice"] = *u.DiscountedPrice
	}
	if u.DiscountPercentage != nil {
		m["discountPercentage"] = *u.DiscountPercentage
	}
	if u.AvailableQuantity != nil {
		m["availableQuantity"] = *u.AvailableQuantity
	}
	return m
}

// Update applies u to a product owned by sellerID.
func (s *ProductStore) Update(ctx context.Context, id, sellerID primitive.ObjectID, u ProductUpdate) (models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "sellerId": sellerID},
		bson.M{"$set": u.set(time.Now())},
		opts,
	).Decode(&p)
	return p, notFound(err)
}

// OrderByIDs arranges products to follow ids, dropping ids with no match.
func OrderByIDs(products []models.Product, ids []primitive.ObjectID) []models.Product {
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
