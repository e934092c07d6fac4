package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TokenStore records revoked bearer tokens until they expire.
type TokenStore struct {
	coll *mongo.Collection
}

func NewTokenStore(db *DB) *TokenStore { return &TokenStore{coll: db.Blacklist} }

func (s *TokenStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if _, err := s.coll.InsertOne(ctx, bson.M{"token": token, "expiresAt": expiresAt}); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (s *TokenStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := s.coll.FindOne(ctx, bson.M{"token": token}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup token: %w", err)
	}
	return true, nil
}
