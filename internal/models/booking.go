package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"localserve/internal/pricing"
)

// Booking is the draft handed from the pricing calculator to the booking
// form. It is created from an estimate and read back by id.
type Booking struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	CartOwner   string              `bson:"cartOwner" json:"-"`
	ServiceType pricing.ServiceType `bson:"serviceType" json:"serviceType"`
	Price       int64               `bson:"price" json:"price"`
	Inputs      pricing.Input       `bson:"inputs" json:"inputs"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}
