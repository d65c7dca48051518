package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"localserve/internal/models"
)

type BookingStore struct {
	coll *mongo.Collection
}

func NewBookingStore(db *mongo.Database) *BookingStore {
	return &BookingStore{coll: db.Collection("bookings")}
}

func (s *BookingStore) Insert(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, booking)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		booking.ID = id
	}
	return nil
}

func (s *BookingStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Booking{}, ErrNotFound
	}
	return booking, err
}
