package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"`
	Role        string             `bson:"role" json:"role"`
	Preferences []string           `bson:"preferences" json:"preferences"`
	Location    *Location          `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// Public is the user shape returned by login and register.
func (u User) Public() PublicUser {
	prefs := u.Preferences
	if prefs == nil {
		prefs = []string{}
	}
	return PublicUser{
		ID:          u.ID.Hex(),
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Preferences: prefs,
		Location:    u.Location,
	}
}

type PublicUser struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Preferences []string  `json:"preferences"`
	Location    *Location `json:"location,omitempty"`
}
