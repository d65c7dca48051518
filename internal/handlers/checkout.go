package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"localserve/internal/addressbook"
	"localserve/internal/checkout"
	"localserve/internal/database"
	"localserve/internal/models"
	"localserve/internal/payment"
)

// checkoutRequest is the checkout form. Address selection is by id; an
// empty id picks the default saved address.
type checkoutRequest struct {
	PaymentMethod  string               `json:"paymentMethod"`
	PaymentDetails payment.Details      `json:"paymentDetails"`
	TimeSlot       string               `json:"timeSlot"`
	AddressID      string               `json:"addressId"`
	Contact        models.OrderCustomer `json:"contact"`
	Instructions   string               `json:"instructions"`
}

func problemStrings(problems []checkout.Problem) []string {
	out := make([]string, len(problems))
	for i, p := range problems {
		out[i] = string(p)
	}
	return out
}

// resolveAddress returns the saved address a non-COD order ships to.
// Guests have no saved addresses.
func resolveAddress(ctx context.Context, c *gin.Context, users AddressRepository, addressID string) (*models.Address, error) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, nil
	}

	addresses, err := users.Addresses(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var (
		address models.Address
		found   bool
	)
	if addressID != "" {
		address, found = addressbook.Find(addresses, addressID)
	} else {
		address, found = addressbook.Select(addresses, "")
	}
	if !found {
		return nil, nil
	}
	return &address, nil
}

func (req checkoutRequest) state(address *models.Address) checkout.State {
	s := checkout.State{
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails.ForMethod(req.PaymentMethod),
		TimeSlot:       req.TimeSlot,
		Contact:        req.Contact,
		Instructions:   req.Instructions,
	}
	if !payment.IsCOD(req.PaymentMethod) {
		s.Address = address
	}
	return s
}

// GetCheckout returns everything the checkout page renders: the cart and
// its totals, the catalogs and the preselected address and payment method.
func GetCheckout(svc *checkout.Service, users AddressRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /checkout"
		defer handlePanic(c, route)

		ctx := c.Request.Context()
		items, totals, err := svc.Summary(ctx, cartOwner(c))
		if err != nil {
			log.Println("[CHECKOUT] [ERROR] summary failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "cart unavailable")
			return
		}
		if items == nil {
			items = []models.CartItem{}
		}

		addresses := []models.Address{}
		if userID, ok := currentUserID(c); ok {
			saved, err := users.Addresses(ctx, userID)
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				log.Println("[CHECKOUT] [ERROR] load addresses failed:", err)
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if saved != nil {
				addresses = saved
			}
		}

		methods := payment.Catalog()
		selectedMethod, _ := payment.DefaultSelection(methods, c.Query("paymentMethod"))
		selectedAddress, _ := addressbook.Select(addresses, c.Query("addressId"))

		c.JSON(http.StatusOK, gin.H{
			"items":                 items,
			"totals":                totals,
			"paymentMethods":        methods,
			"selectedPaymentMethod": selectedMethod.ID,
			"timeSlots":             checkout.TimeSlots(),
			"addresses":             addresses,
			"selectedAddress":       selectedAddress.ID,
		})
	}
}

// ValidateCheckout reports whether the form can be submitted and which
// conditions are unmet.
func ValidateCheckout(svc *checkout.Service, users AddressRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/validate"
		defer handlePanic(c, route)

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx := c.Request.Context()
		items, totals, err := svc.Summary(ctx, cartOwner(c))
		if err != nil {
			log.Println("[CHECKOUT] [ERROR] summary failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "cart unavailable")
			return
		}

		address, err := resolveAddress(ctx, c, users, req.AddressID)
		if err != nil {
			log.Println("[CHECKOUT] [ERROR] load addresses failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		state := req.state(address)
		state.Items = items
		problems := checkout.Validate(state)

		c.JSON(http.StatusOK, gin.H{
			"canSubmit": len(problems) == 0,
			"problems":  problemStrings(problems),
			"totals":    totals,
		})
	}
}
