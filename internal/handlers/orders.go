package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"localserve/internal/checkout"
	"localserve/internal/database"
	"localserve/internal/idempotency"
	"localserve/internal/models"
	"localserve/internal/tracker"
)

const (
	IdempotencyHeader  = "Idempotency-Key"
	submitTimeout      = 5 * time.Second
	customerOrderLimit = 50
)

const submitFailedMessage = "Failed to place order. Please try again."

// CreateOrder places an order from the caller's cart. A repeated
// Idempotency-Key is rejected while the previous claim is alive.
func CreateOrder(svc *checkout.Service, users AddressRepository, claims idempotency.Claimer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), submitTimeout)
		defer cancel()

		owner := cartOwner(c)
		claimKey := ""
		if key := strings.TrimSpace(c.GetHeader(IdempotencyHeader)); key != "" {
			claimKey = owner + ":" + key
			ok, err := claims.Claim(ctx, claimKey)
			if err != nil {
				log.Println("[ORDER] [ERROR] idempotency claim failed:", err)
				respondWithError(c, http.StatusServiceUnavailable, route, submitFailedMessage)
				return
			}
			if !ok {
				respondWithError(c, http.StatusConflict, route, "duplicate order submission")
				return
			}
		}
		placed := false
		defer func() {
			if claimKey == "" || placed {
				return
			}
			if err := claims.Release(context.WithoutCancel(ctx), claimKey); err != nil {
				log.Println("[ORDER] [WARN] idempotency release failed:", err)
			}
		}()

		address, err := resolveAddress(ctx, c, users, req.AddressID)
		if err != nil {
			log.Println("[ORDER] [ERROR] load addresses failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, submitFailedMessage)
			return
		}

		sel := checkout.Selection{Owner: owner, State: req.state(address)}
		if userID, ok := currentUserID(c); ok {
			sel.UserID = &userID
		}

		order, err := svc.PlaceOrder(ctx, sel)
		var verr checkout.ValidationError
		if errors.As(err, &verr) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": problemStrings(verr.Problems),
			})
			return
		}
		if err != nil {
			log.Println("[ORDER] [ERROR] place order failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, submitFailedMessage)
			return
		}

		placed = true

		if sel.UserID != nil {
			log.Println("[ORDER] [INFO] order created for user:", sel.UserID.Hex())
		} else {
			log.Println("[ORDER] [INFO] guest order created:", order.ID.Hex())
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId": order.ID.Hex(),
			"message": "order placed",
			"order":   order,
		})
	}
}

// GetMyOrders lists the newest orders of the signed-in user or guest session.
func GetMyOrders(orders OrderRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		var userID *primitive.ObjectID
		if id, ok := currentUserID(c); ok {
			userID = &id
		}

		list, err := orders.ListForCustomer(c.Request.Context(), userID, cartOwner(c), customerOrderLimit)
		if err != nil {
			log.Println("[ORDER] [ERROR] list failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "orders could not be fetched")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": list})
	}
}

func GetOrder(orders OrderRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		order, ok := loadOwnOrder(c, orders, route)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GetOrderTracking renders the tracking timeline of an order. live=true
// marks a customer following the delivery and enables the courier banner.
func GetOrderTracking(orders OrderRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id/tracking"
		defer handlePanic(c, route)

		order, ok := loadOwnOrder(c, orders, route)
		if !ok {
			return
		}

		live, _ := strconv.ParseBool(c.DefaultQuery("live", "false"))
		view := tracker.Render(tracker.Input{
			History: order.History,
			Courier: order.DeliveryPerson,
			ETA:     order.ETA,
			Live:    live,
		})
		c.JSON(http.StatusOK, gin.H{"orderId": order.ID.Hex(), "tracking": view})
	}
}

// loadOwnOrder fetches the order named by the id parameter. Orders of other
// customers are reported as missing.
func loadOwnOrder(c *gin.Context, orders OrderRepository, route string) (models.Order, bool) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid id")
		return models.Order{}, false
	}

	order, err := orders.FindByID(c.Request.Context(), orderID)
	if errors.Is(err, database.ErrNotFound) {
		respondWithError(c, http.StatusNotFound, route, "order not found")
		return models.Order{}, false
	}
	if err != nil {
		log.Println("[ORDER] [ERROR] find failed:", err)
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return models.Order{}, false
	}

	if order.CartOwner != cartOwner(c) {
		respondWithError(c, http.StatusNotFound, route, "order not found")
		return models.Order{}, false
	}
	return order, true
}
