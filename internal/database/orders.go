package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"localserve/internal/models"
	"localserve/internal/tracker"
)

const ordersCollection = "orders"

type OrderStore struct {
	coll *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{coll: db.Collection(ordersCollection)}
}

func (s *OrderStore) Insert(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, order)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var order models.Order
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrNotFound
	}
	return order, err
}

// ListForCustomer returns the newest orders of a signed-in user, or of a
// guest cart owner when userID is nil.
func (s *OrderStore) ListForCustomer(ctx context.Context, userID *primitive.ObjectID, owner string, limit int64) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"cartOwner": owner}
	if userID != nil {
		filter = bson.M{"userId": *userID}
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// List pages through every order, optionally filtered by status.
func (s *OrderStore) List(ctx context.Context, status tracker.Status, page, limit int64) ([]models.Order, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateTracking writes the tracking fields of order, provided the stored
// status is still from.
func (s *OrderStore) UpdateTracking(ctx context.Context, order models.Order, from tracker.Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": order.ID, "status": from},
		bson.M{"$set": bson.M{
			"status":         order.Status,
			"history":        order.History,
			"deliveryPerson": order.DeliveryPerson,
			"eta":            order.ETA,
			"updatedAt":      order.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStale
	}
	return nil
}

func (s *OrderStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
