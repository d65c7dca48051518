package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"localserve/internal/database"
	"localserve/internal/models"
	"localserve/internal/pricing"
)

// CreateBooking stores a booking draft from estimator inputs. The price is
// recomputed here and never taken from the client.
func CreateBooking(bookings BookingRepository, rates pricing.Rates) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /bookings"
		defer handlePanic(c, route)

		in, quote, ok := estimate(c, rates, route)
		if !ok {
			return
		}

		booking := models.Booking{
			ServiceType: in.ServiceType,
			Price:       quote.Price,
			Inputs:      in,
			CartOwner:   cartOwner(c),
			CreatedAt:   time.Now(),
		}
		if userID, ok := currentUserID(c); ok {
			booking.UserID = &userID
		}

		if err := bookings.Insert(c.Request.Context(), &booking); err != nil {
			log.Println("[BOOKING] [ERROR] insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[BOOKING] [INFO] booking draft created:", booking.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"bookingId": booking.ID.Hex(), "booking": booking})
	}
}

// GetBooking returns a booking draft of the caller. Drafts of other
// customers are reported as missing.
func GetBooking(bookings BookingRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /bookings/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		booking, err := bookings.FindByID(c.Request.Context(), id)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "booking not found")
			return
		}
		if err != nil {
			log.Println("[BOOKING] [ERROR] find failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if booking.CartOwner != cartOwner(c) {
			respondWithError(c, http.StatusNotFound, route, "booking not found")
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}
