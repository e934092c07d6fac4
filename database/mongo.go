package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type DB struct {
	Client *mongo.Client
	DB     *mongo.Database

	Users      *mongo.Collection
	Products   *mongo.Collection
	Categories *mongo.Collection
	Orders     *mongo.Collection
	Blacklist  *mongo.Collection
}

func ConnectMongo(ctx context.Context, uri, dbName string) (*DB, error) {
	if uri == "" || dbName == "" {
		return nil, errors.New("mongo uri and database name are required")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	slog.Info("connected to mongo", "db", dbName)

	return &DB{
		Client:     client,
		DB:         db,
		Users:      db.Collection("users"),
		Products:   db.Collection("products"),
		Categories: db.Collection("categories"),
		Orders:     db.Collection("orders"),
		Blacklist:  db.Collection("blacklist_tokens"),
	}, nil
}

func (d *DB) Disconnect(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := d.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	if _, err := d.Products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sellerId", Value: 1}},
	}); err != nil {
		return fmt.Errorf("products seller index: %w", err)
	}
	if _, err := d.Orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "bookedById", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("orders buyer index: %w", err)
	}
	// Revoked tokens are only interesting until they would have expired anyway.
	if _, err := d.Blacklist.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}); err != nil {
		return fmt.Errorf("blacklist ttl index: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
