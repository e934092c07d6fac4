package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Category struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name     string               `bson:"name" json:"name"`
	Emoji    string               `bson:"emoji,omitempty" json:"emoji,omitempty"`
	Products []primitive.ObjectID `bson:"products" json:"products"`
}

// Chip is a category with its member products resolved, in category order.
type Chip struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Emoji    string             `json:"emoji,omitempty"`
	Products []Product          `json:"products"`
}
