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
)

// UserStore holds user accounts and their address books.
type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection("users")}
}

func (s *UserStore) Addresses(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"addresses": 1}),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if user.Addresses == nil {
		return []models.Address{}, nil
	}
	return user.Addresses, nil
}

func (s *UserStore) SaveAddresses(ctx context.Context, userID primitive.ObjectID, addresses []models.Address) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.UpdateByID(ctx, userID, bson.M{
		"$set": bson.M{
			"addresses": addresses,
			"updatedAt": time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Create inserts a new account. ErrDuplicate is returned when the email is
// already registered.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

// FindByEmail looks up an account by email. A non-empty role narrows the
// match to accounts holding that role.
func (s *UserStore) FindByEmail(ctx context.Context, email, role string) (models.User, error) {
	filter := bson.M{"email": email}
	if role != "" {
		filter["role"] = role
	}
	return s.findOne(ctx, filter)
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	err := s.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	return user, err
}
