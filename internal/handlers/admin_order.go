package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"localserve/internal/database"
	"localserve/internal/models"
	"localserve/internal/tracker"
)

type updateOrderStatusRequest struct {
	Status         string           `json:"status" binding:"required"`
	Reason         string           `json:"reason"`
	DeliveryPerson *tracker.Courier `json:"deliveryPerson"`
	ETA            *time.Time       `json:"eta"`
}

func GetAllOrders(orders OrderRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		var status tracker.Status
		if raw := strings.TrimSpace(c.Query("status")); raw != "" {
			if status, err = tracker.ParseStatus(raw); err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
		}

		list, total, err := orders.List(c.Request.Context(), status, page, limit)
		if err != nil {
			log.Println("[ADMIN] [ERROR] list orders failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "orders could not be fetched")
			return
		}
		if list == nil {
			list = []models.Order{}
		}

		c.JSON(http.StatusOK, gin.H{
			"data": list,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		})
	}
}

// UpdateOrderStatus moves an order along the tracking state machine.
// Dispatching sets the delivery person and ETA; cancelling records the
// reason.
func UpdateOrderStatus(orders OrderRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		to, err := tracker.ParseStatus(req.Status)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx := c.Request.Context()
		order, err := orders.FindByID(ctx, orderID)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			log.Println("[ADMIN] [ERROR] find order failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		now := time.Now()
		history, err := tracker.Transition(order.History, to, now, strings.TrimSpace(req.Reason))
		var terr tracker.TransitionError
		if errors.As(err, &terr) {
			respondWithError(c, http.StatusConflict, route, terr.Error())
			return
		}
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		from := order.Status
		order.History = history
		order.Status = to
		order.UpdatedAt = now
		if to == tracker.StatusOutForDelivery {
			order.DeliveryPerson = req.DeliveryPerson
			order.ETA = req.ETA
		}

		if err := orders.UpdateTracking(ctx, order, from); err != nil {
			if errors.Is(err, database.ErrStale) {
				respondWithError(c, http.StatusConflict, route, "order changed, reload and retry")
				return
			}
			log.Println("[ADMIN] [ERROR] update order status failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[ADMIN] [INFO] order %s moved %s -> %s", order.ID.Hex(), from, to)
		c.JSON(http.StatusOK, order)
	}
}

func DeleteOrder(orders OrderRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		err = orders.Delete(c.Request.Context(), orderID)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}
