package database

import (
	"context"
	"fmt"

	"foodmarket/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *DB) *UserStore { return &UserStore{coll: db.Users} }

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Preferences == nil {
		u.Preferences = []string{}
	}
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, notFound(err)
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, notFound(err)
}

// AddPreferences merges prefs into the user's preference set and returns the
// updated user.
func (s *UserStore) AddPreferences(ctx context.Context, id primitive.ObjectID, prefs []string) (models.User, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"preferences": bson.M{"$each": prefs}}},
	)
	if err != nil {
		return models.User{}, fmt.Errorf("add preferences: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.User{}, ErrNotFound
	}
	return s.FindByID(ctx, id)
}
