package addressbook

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"localserve/internal/models"
)

const (
	LabelHome  = "Home"
	LabelWork  = "Work"
	LabelOther = "Other"
)

var ErrNotFound = errors.New("address not found")

// Input is the add-address form.
type Input struct {
	Label      string `json:"label"`
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Line       string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	IsDefault  bool   `json:"isDefault"`
}

// MissingFieldsError lists the mandatory form fields left blank.
type MissingFieldsError struct {
	Fields []string
}

func (e MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

func (in Input) Validate() error {
	required := []struct{ name, value string }{
		{"name", in.Name},
		{"phone", in.Phone},
		{"address", in.Line},
		{"city", in.City},
		{"state", in.State},
		{"postalCode", in.PostalCode},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return MissingFieldsError{Fields: missing}
	}
	return nil
}

// NormalizeLabel maps a free label onto Home, Work or Other.
func NormalizeLabel(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "home":
		return LabelHome
	case "work", "office":
		return LabelWork
	default:
		return LabelOther
	}
}

// Add appends a new address and returns the updated list along with the
// new entry, which becomes the selection. Identifiers are random UUIDs so
// removals never cause collisions. The input list is not modified.
func Add(addresses []models.Address, in Input) ([]models.Address, models.Address, error) {
	if err := in.Validate(); err != nil {
		return addresses, models.Address{}, err
	}

	address := models.Address{
		ID:         uuid.NewString(),
		Label:      NormalizeLabel(in.Label),
		Name:       strings.TrimSpace(in.Name),
		Phone:      strings.TrimSpace(in.Phone),
		Line:       strings.TrimSpace(in.Line),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		PostalCode: strings.TrimSpace(in.PostalCode),
		IsDefault:  in.IsDefault,
	}

	updated := make([]models.Address, len(addresses), len(addresses)+1)
	copy(updated, addresses)
	if address.IsDefault {
		for i := range updated {
			updated[i].IsDefault = false
		}
	}
	return append(updated, address), address, nil
}

// Select returns the address to highlight. An existing selection wins;
// otherwise the default address, then the first one.
func Select(addresses []models.Address, selectedID string) (models.Address, bool) {
	if selectedID != "" {
		if a, ok := Find(addresses, selectedID); ok {
			return a, true
		}
	}
	for _, a := range addresses {
		if a.IsDefault {
			return a, true
		}
	}
	if len(addresses) == 0 {
		return models.Address{}, false
	}
	return addresses[0], true
}

func Find(addresses []models.Address, id string) (models.Address, bool) {
	for _, a := range addresses {
		if a.ID == id {
			return a, true
		}
	}
	return models.Address{}, false
}

// SetDefault marks id as the only default address.
func SetDefault(addresses []models.Address, id string) ([]models.Address, error) {
	if _, ok := Find(addresses, id); !ok {
		return addresses, ErrNotFound
	}
	updated := make([]models.Address, len(addresses))
	for i, a := range addresses {
		a.IsDefault = a.ID == id
		updated[i] = a
	}
	return updated, nil
}

func Remove(addresses []models.Address, id string) ([]models.Address, error) {
	updated := make([]models.Address, 0, len(addresses))
	found := false
	for _, a := range addresses {
		if a.ID == id {
			found = true
			continue
		}
		updated = append(updated, a)
	}
	if !found {
		return addresses, ErrNotFound
	}
	return updated, nil
}
