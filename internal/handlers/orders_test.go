package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localserve/internal/checkout"
	"localserve/internal/models"
	"localserve/internal/payment"
	"localserve/internal/tracker"
)

func (e *testEnv) fillCart(t *testing.T, headers map[string]string) {
	t.Helper()
	w := e.do(t, request{method: http.MethodPut, path: "/cart", headers: headers, body: replaceCartRequest{Items: []models.CartItem{
		{ID: "milk", Name: "Milk", Price: 60, OldPrice: floatPtr(70), Quantity: 2},
		{ID: "rice", Name: "Rice", Price: 450, Quantity: 1},
	}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func homeAddress() models.Address {
	return models.Address{ID: "home-1", Label: "Home", Name: "Asha", Phone: "98765", Line: "12 MG Road", City: "Delhi", State: "DL", PostalCode: "110001", IsDefault: true}
}

func TestGetCheckoutPreselects(t *testing.T) {
	env := newTestEnv(t)
	work := models.Address{ID: "work-1", Label: "Work", Name: "Asha", Line: "Office"}
	_, auth := env.addUser(t, "user", work, homeAddress())
	headers := map[string]string{"Authorization": auth}
	env.fillCart(t, headers)

	w := env.do(t, request{method: http.MethodGet, path: "/checkout", headers: headers})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[struct {
		Items                 []models.CartItem   `json:"items"`
		Totals                models.OrderTotals  `json:"totals"`
		PaymentMethods        []payment.Method    `json:"paymentMethods"`
		SelectedPaymentMethod string              `json:"selectedPaymentMethod"`
		TimeSlots             []checkout.TimeSlot `json:"timeSlots"`
		SelectedAddress       string              `json:"selectedAddress"`
	}](t, w)

	assert.Len(t, body.Items, 2)
	assert.Equal(t, 570.0, body.Totals.Subtotal)
	assert.Equal(t, 0.0, body.Totals.DeliveryFee)
	assert.Len(t, body.PaymentMethods, 5)
	assert.Equal(t, payment.MethodUPI, body.SelectedPaymentMethod)
	assert.Len(t, body.TimeSlots, 4)
	assert.Equal(t, "home-1", body.SelectedAddress)
}

func TestValidateCheckoutListsProblems(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, request{method: http.MethodPost, path: "/checkout/validate", headers: guest(uuid.NewString()),
		body: checkoutRequest{PaymentMethod: payment.MethodCard}})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		CanSubmit bool     `json:"canSubmit"`
		Problems  []string `json:"problems"`
	}](t, w)
	assert.False(t, body.CanSubmit)
	assert.Equal(t, []string{
		string(checkout.ProblemEmptyCart),
		string(checkout.ProblemNoTimeSlot),
		string(checkout.ProblemNoAddress),
	}, body.Problems)
}

func TestCreateOrderForUserClearsCart(t *testing.T) {
	env := newTestEnv(t)
	userID, auth := env.addUser(t, "user", homeAddress())
	headers := map[string]string{"Authorization": auth}
	env.fillCart(t, headers)

	w := env.do(t, request{method: http.MethodPost, path: "/orders", headers: headers, body: checkoutRequest{
		PaymentMethod:  payment.MethodCard,
		PaymentDetails: payment.Details{Card: &payment.CardDetails{Number: "4111 1111 1111 1234", CVV: "123"}},
		TimeSlot:       "evening",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode[struct {
		OrderID string       `json:"orderId"`
		Order   models.Order `json:"order"`
	}](t, w)
	require.NotEmpty(t, body.OrderID)
	assert.Equal(t, tracker.StatusPending, body.Order.Status)
	require.NotNil(t, body.Order.Address)
	assert.Equal(t, "home-1", body.Order.Address.ID)
	assert.Equal(t, "card ending 1234", body.Order.PaymentRef)
	require.NotNil(t, body.Order.UserID)
	assert.Equal(t, userID, *body.Order.UserID)

	w = env.do(t, request{method: http.MethodGet, path: "/cart", headers: headers})
	assert.Empty(t, decode[cartBody](t, w).Items)

	w = env.do(t, request{method: http.MethodGet, path: "/orders", headers: headers})
	list := decode[struct {
		Data []models.Order `json:"data"`
	}](t, w)
	assert.Len(t, list.Data, 1)
}

func TestCreateOrderGuestCOD(t *testing.T) {
	env := newTestEnv(t)
	headers := guest(uuid.NewString())
	env.fillCart(t, headers)

	w := env.do(t, request{method: http.MethodPost, path: "/orders", headers: headers, body: checkoutRequest{
		PaymentMethod: payment.MethodCOD,
		TimeSlot:      "morning",
		Contact:       models.OrderCustomer{Name: "Ravi", Contact: "99999", Address: "4 Park Street"},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	order := decode[struct {
		Order models.Order `json:"order"`
	}](t, w).Order
	require.NotNil(t, order.Customer)
	assert.Nil(t, order.Address)
	assert.Nil(t, order.UserID)
}

func TestCreateOrderValidationFailure(t *testing.T) {
	env := newTestEnv(t)
	headers := guest(uuid.NewString())
	env.fillCart(t, headers)

	w := env.do(t, request{method: http.MethodPost, path: "/orders", headers: headers, body: checkoutRequest{
		PaymentMethod: payment.MethodUPI,
		TimeSlot:      "morning",
	}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), string(checkout.ProblemNoAddress))

	w = env.do(t, request{method: http.MethodGet, path: "/cart", headers: headers})
	assert.Len(t, decode[cartBody](t, w).Items, 2)
}

func TestCreateOrderStoreFailureKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	env.orders.insertErr = errors.New("primary stepped down")
	headers := guest(uuid.NewString())
	env.fillCart(t, headers)

	w := env.do(t, request{method: http.MethodPost, path: "/orders", headers: headers, body: checkoutRequest{
		PaymentMethod: payment.MethodCOD,
		TimeSlot:      "morning",
		Contact:       models.OrderCustomer{Name: "Ravi", Contact: "99999", Address: "4 Park Street"},
	}})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), submitFailedMessage)

	w = env.do(t, request{method: http.MethodGet, path: "/cart", headers: headers})
	assert.Len(t, decode[cartBody](t, w).Items, 2)
}

func TestCreateOrderIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	headers := guest(uuid.NewString())
	headers[IdempotencyHeader] = "submit-1"
	env.fillCart(t, headers)

	body := checkoutRequest{
		PaymentMethod: payment.MethodCOD,
		TimeSlot:      "morning",
		Contact:       models.OrderCustomer{Name: "Ravi", Contact: "99999", Address: "4 Park Street"},
	}

	// A failed validation releases the key.
	w := env.do(t, request{method: http.MethodPost, path: "/orders", headers: headers, body: checkoutRequest{PaymentMethod: payment.MethodCOD}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/orders", headers: headers, body: body})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env.fillCart(t, headers)
	w = env.do(t, request{method: http.MethodPost, path: "/orders", headers: headers, body: body})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, env.orders.orders, 1)
}

func TestCreateOrderPanicReleasesIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	headers := guest(uuid.NewString())
	headers[IdempotencyHeader] = "submit-1"
	env.fillCart(t, headers)

	body := checkoutRequest{
		PaymentMethod: payment.MethodCOD,
		TimeSlot:      "morning",
		Contact:       models.OrderCustomer{Name: "Ravi", Contact: "99999", Address: "4 Park Street"},
	}

	env.orders.insertPanic = true
	w := env.do(t, request{method: http.MethodPost, path: "/orders", headers: headers, body: body})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	env.orders.insertPanic = false
	w = env.do(t, request{method: http.MethodPost, path: "/orders", headers: headers, body: body})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func placeGuestOrder(t *testing.T, env *testEnv, headers map[string]string) string {
	t.Helper()
	env.fillCart(t, headers)
	w := env.do(t, request{method: http.MethodPost, path: "/orders", headers: headers, body: checkoutRequest{
		PaymentMethod: payment.MethodCOD,
		TimeSlot:      "night",
		Contact:       models.OrderCustomer{Name: "Ravi", Contact: "99999", Address: "4 Park Street"},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		OrderID string `json:"orderId"`
	}](t, w).OrderID
}

func TestGetOrderHidesOtherCustomers(t *testing.T) {
	env := newTestEnv(t)
	owner := guest(uuid.NewString())
	id := placeGuestOrder(t, env, owner)

	w := env.do(t, request{method: http.MethodGet, path: "/orders/" + id, headers: owner})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/orders/" + id, headers: guest(uuid.NewString())})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/orders/not-an-id", headers: owner})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type trackingBody struct {
	Tracking tracker.View `json:"tracking"`
}

func TestTrackingFollowsAdminUpdates(t *testing.T) {
	env := newTestEnv(t)
	owner := guest(uuid.NewString())
	id := placeGuestOrder(t, env, owner)
	_, adminAuth := env.addUser(t, "admin")
	admin := map[string]string{"Authorization": adminAuth}

	w := env.do(t, request{method: http.MethodPatch, path: "/admin/api/orders/" + id + "/status", headers: admin,
		body: updateOrderStatusRequest{Status: "out-for-delivery"}})
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, request{method: http.MethodPatch, path: "/admin/api/orders/" + id + "/status", headers: admin,
		body: updateOrderStatusRequest{Status: "confirmed"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	eta := time.Now().Add(20 * time.Minute).UTC().Truncate(time.Second)
	w = env.do(t, request{method: http.MethodPatch, path: "/admin/api/orders/" + id + "/status", headers: admin,
		body: updateOrderStatusRequest{
			Status:         "out-for-delivery",
			DeliveryPerson: &tracker.Courier{Name: "Vikram", Phone: "+91 98100 00000"},
			ETA:            &eta,
		}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, request{method: http.MethodGet, path: "/orders/" + id + "/tracking", headers: owner})
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[trackingBody](t, w).Tracking
	assert.Equal(t, tracker.StatusOutForDelivery, view.Status)
	assert.Equal(t, 2, view.Current)
	assert.Nil(t, view.Banner)

	w = env.do(t, request{method: http.MethodGet, path: "/orders/" + id + "/tracking?live=true", headers: owner})
	view = decode[trackingBody](t, w).Tracking
	require.NotNil(t, view.Banner)
	assert.Equal(t, tracker.BannerInProgress, view.Banner.Kind)
	assert.Equal(t, "tel:+919810000000", view.Banner.CallLink)
	require.NotNil(t, view.Banner.ETA)
	assert.True(t, eta.Equal(*view.Banner.ETA))

	w = env.do(t, request{method: http.MethodPatch, path: "/admin/api/orders/" + id + "/status", headers: admin,
		body: updateOrderStatusRequest{Status: "cancelled", Reason: "customer unreachable"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/orders/" + id + "/tracking", headers: owner})
	view = decode[trackingBody](t, w).Tracking
	require.NotNil(t, view.Banner)
	assert.Equal(t, tracker.BannerCancelled, view.Banner.Kind)
	assert.Equal(t, "customer unreachable", view.Banner.Reason)
	assert.Equal(t, tracker.CancelledLabel, view.Steps[view.Current].Label)
}
