package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"localserve/internal/addressbook"
	"localserve/internal/database"
	"localserve/internal/models"
)

func GetUserAddresses(users AddressRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/addresses"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		addresses, err := users.Addresses(c.Request.Context(), userID)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}
		if err != nil {
			log.Println("[ADDRESS] [ERROR] get addresses failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		selected, _ := addressbook.Select(addresses, c.Query("selected"))
		c.JSON(http.StatusOK, gin.H{"addresses": addresses, "selected": selected.ID})
	}
}

// CreateUserAddress adds an address and returns it as the new selection.
func CreateUserAddress(users AddressRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/addresses"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req addressbook.Input
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx := c.Request.Context()
		addresses, err := users.Addresses(ctx, userID)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}
		if err != nil {
			log.Println("[ADDRESS] [ERROR] load addresses failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		updated, address, err := addressbook.Add(addresses, req)
		var missing addressbook.MissingFieldsError
		if errors.As(err, &missing) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": missing.Fields,
			})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if err := users.SaveAddresses(ctx, userID, updated); err != nil {
			log.Println("[ADDRESS] [ERROR] insert address failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ADDRESS] [INFO] address created:", address.ID)
		c.JSON(http.StatusCreated, gin.H{"address": address, "selected": address.ID})
	}
}

func SetDefaultUserAddress(users AddressRepository) gin.HandlerFunc {
	return updateAddresses(users, "PUT /user/addresses/:id/default", "address set as default", addressbook.SetDefault)
}

func DeleteUserAddress(users AddressRepository) gin.HandlerFunc {
	return updateAddresses(users, "DELETE /user/addresses/:id", "address deleted", addressbook.Remove)
}

func updateAddresses(
	users AddressRepository,
	route, message string,
	apply func(addresses []models.Address, id string) ([]models.Address, error),
) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		addressID := strings.TrimSpace(c.Param("id"))
		if addressID == "" {
			respondWithError(c, http.StatusBadRequest, route, "invalid address id")
			return
		}

		ctx := c.Request.Context()
		addresses, err := users.Addresses(ctx, userID)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}
		if err != nil {
			log.Println("[ADDRESS] [ERROR] load addresses failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		updated, err := apply(addresses, addressID)
		if errors.Is(err, addressbook.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "address not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if err := users.SaveAddresses(ctx, userID, updated); err != nil {
			log.Println("[ADDRESS] [ERROR] save addresses failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[ADDRESS] [INFO] %s: %s", message, addressID)
		c.JSON(http.StatusOK, gin.H{"message": message, "addresses": updated})
	}
}
