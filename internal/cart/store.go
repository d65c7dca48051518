package cart

import (
	"context"

	"localserve/internal/models"
)

// Store persists carts as JSON arrays keyed by owner. Every Save and
// Clear is published to the owner's subscribers so open checkout pages
// can re-sync instead of working from a stale snapshot.
type Store interface {
	Load(ctx context.Context, owner string) ([]models.CartItem, error)
	Save(ctx context.Context, owner string, items []models.CartItem) error
	Clear(ctx context.Context, owner string) error
	// Subscribe delivers the owner's cart after every change until ctx
	// is done, then closes the channel.
	Subscribe(ctx context.Context, owner string) (<-chan []models.CartItem, error)
}
