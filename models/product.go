package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"`
	OriginalPrice      float64            `bson:"originalPrice" json:"originalPrice"`
	DiscountedPrice    float64            `bson:"discountedPrice" json:"discountedPrice"`
	DiscountPercentage float64            `bson:"discountPercentage" json:"discountPercentage"`
	AvailableQuantity  int                `bson:"availableQuantity" json:"availableQuantity"`
	CategoryID         primitive.ObjectID `bson:"categoryId" json:"categoryId"`
	SellerID           primitive.ObjectID `bson:"sellerId" json:"sellerId"`
	Category           *CategoryRef       `bson:"category,omitempty" json:"category,omitempty"`
	Seller             *SellerRef         `bson:"seller,omitempty" json:"seller,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CategoryRef and SellerRef are populated on read and never stored on the
// product document itself.
type CategoryRef struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Emoji string             `bson:"emoji,omitempty" json:"emoji,omitempty"`
}

type SellerRef struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Location *Location          `bson:"location,omitempty" json:"location,omitempty"`
}
