package cart

import (
	"errors"
	"fmt"
	"strings"

	"localserve/internal/models"
)

// MaxQuantity is the largest quantity a single cart line may hold.
const MaxQuantity = 99

var (
	ErrInvalidItem  = errors.New("invalid cart item")
	ErrItemNotFound = errors.New("item not in cart")
)

func ValidateItem(item models.CartItem) error {
	switch {
	case strings.TrimSpace(item.ID) == "":
		return errors.Join(ErrInvalidItem, errors.New("id is required"))
	case strings.TrimSpace(item.Name) == "":
		return errors.Join(ErrInvalidItem, errors.New("name is required"))
	case item.Price < 0:
		return errors.Join(ErrInvalidItem, errors.New("price must not be negative"))
	case item.OldPrice != nil && *item.OldPrice < 0:
		return errors.Join(ErrInvalidItem, errors.New("oldPrice must not be negative"))
	case item.Quantity <= 0:
		return errors.Join(ErrInvalidItem, errors.New("quantity must be greater than zero"))
	case item.Quantity > MaxQuantity:
		return errQuantityTooLarge
	}
	return nil
}

var errQuantityTooLarge = errors.Join(ErrInvalidItem, fmt.Errorf("quantity must not exceed %d", MaxQuantity))

// AddItem merges item into items. An existing line with the same id has
// its quantity increased and its prices refreshed.
func AddItem(items []models.CartItem, item models.CartItem) ([]models.CartItem, error) {
	if err := ValidateItem(item); err != nil {
		return items, err
	}

	updated := make([]models.CartItem, len(items), len(items)+1)
	copy(updated, items)
	for i := range updated {
		if updated[i].ID == item.ID {
			if updated[i].Quantity > MaxQuantity-item.Quantity {
				return items, errQuantityTooLarge
			}
			updated[i].Quantity += item.Quantity
			updated[i].Price = item.Price
			updated[i].OldPrice = item.OldPrice
			return updated, nil
		}
	}
	return append(updated, item), nil
}

// SetQuantity changes the quantity of a line. A quantity of zero or less
// removes it.
func SetQuantity(items []models.CartItem, id string, quantity int) ([]models.CartItem, error) {
	if quantity <= 0 {
		return RemoveItem(items, id)
	}
	if quantity > MaxQuantity {
		return items, errQuantityTooLarge
	}

	updated := make([]models.CartItem, len(items))
	copy(updated, items)
	for i := range updated {
		if updated[i].ID == id {
			updated[i].Quantity = quantity
			return updated, nil
		}
	}
	return items, ErrItemNotFound
}

func RemoveItem(items []models.CartItem, id string) ([]models.CartItem, error) {
	updated := make([]models.CartItem, 0, len(items))
	found := false
	for _, item := range items {
		if item.ID == id {
			found = true
			continue
		}
		updated = append(updated, item)
	}
	if !found {
		return items, ErrItemNotFound
	}
	return updated, nil
}
