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

// RefreshTokenStore keeps hashed refresh tokens. Revocation only ever
// touches tokens that are still active.
type RefreshTokenStore struct {
	coll *mongo.Collection
}

func NewRefreshTokenStore(db *mongo.Database) *RefreshTokenStore {
	return &RefreshTokenStore{coll: db.Collection("refresh_tokens")}
}

func (s *RefreshTokenStore) Insert(ctx context.Context, token *models.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, token)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		token.ID = id
	}
	return nil
}

func (s *RefreshTokenStore) FindByHash(ctx context.Context, hash string) (models.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var token models.RefreshToken
	err := s.coll.FindOne(ctx, bson.M{"tokenHash": hash}).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RefreshToken{}, ErrNotFound
	}
	return token, err
}

// Rotate revokes token id and records its successor. ErrStale is returned
// when the token was revoked in the meantime.
func (s *RefreshTokenStore) Rotate(ctx context.Context, id, replacedBy primitive.ObjectID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "revokedAt": nil},
		bson.M{"$set": bson.M{"revokedAt": at, "replacedBy": replacedBy}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrStale
	}
	return nil
}

func (s *RefreshTokenStore) Revoke(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.revoke(ctx, bson.M{"_id": id, "revokedAt": nil}, at)
}

// RevokeByHash revokes the active token with the given hash. ErrNotFound is
// returned when no active token matches.
func (s *RefreshTokenStore) RevokeByHash(ctx context.Context, hash string, at time.Time) error {
	return s.revoke(ctx, bson.M{"tokenHash": hash, "revokedAt": nil}, at)
}

func (s *RefreshTokenStore) RevokeAllForUser(ctx context.Context, userID primitive.ObjectID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.coll.UpdateMany(ctx,
		bson.M{"userId": userID, "revokedAt": nil},
		bson.M{"$set": bson.M{"revokedAt": at}},
	)
	return err
}

func (s *RefreshTokenStore) revoke(ctx context.Context, filter bson.M, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"revokedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
