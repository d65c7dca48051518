package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"localserve/internal/models"
	"localserve/internal/tracker"
)

// OrderRepository is the order persistence the handlers need.
// database.OrderStore implements it.
type OrderRepository interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	ListForCustomer(ctx context.Context, userID *primitive.ObjectID, owner string, limit int64) ([]models.Order, error)
	List(ctx context.Context, status tracker.Status, page, limit int64) ([]models.Order, int64, error)
	UpdateTracking(ctx context.Context, order models.Order, from tracker.Status) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type BookingRepository interface {
	Insert(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Booking, error)
}

type AddressRepository interface {
	Addresses(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error)
	SaveAddresses(ctx context.Context, userID primitive.ObjectID, addresses []models.Address) error
}

// AccountRepository is implemented by database.UserStore.
type AccountRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email, role string) (models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// TokenRepository stores hashed refresh tokens.
// database.RefreshTokenStore implements it.
type TokenRepository interface {
	Insert(ctx context.Context, token *models.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (models.RefreshToken, error)
	Rotate(ctx context.Context, id, replacedBy primitive.ObjectID, at time.Time) error
	Revoke(ctx context.Context, id primitive.ObjectID, at time.Time) error
	RevokeByHash(ctx context.Context, hash string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID primitive.ObjectID, at time.Time) error
}
