package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"localserve/internal/cart"
	"localserve/internal/checkout"
	"localserve/internal/models"
)

const cartHeartbeat = 15 * time.Second

type replaceCartRequest struct {
	Items []models.CartItem `json:"items"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func cartResponse(items []models.CartItem) gin.H {
	if items == nil {
		items = []models.CartItem{}
	}
	return gin.H{"items": items, "totals": checkout.ComputeTotals(items)}
}

func GetCart(store cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		items, err := store.Load(c.Request.Context(), cartOwner(c))
		if err != nil {
			log.Println("[CART] [ERROR] load failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "cart unavailable")
			return
		}
		c.JSON(http.StatusOK, cartResponse(items))
	}
}

// ReplaceCart overwrites the whole cart. Lines sharing an id are merged.
func ReplaceCart(store cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart"
		defer handlePanic(c, route)

		var req replaceCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		items := make([]models.CartItem, 0, len(req.Items))
		for _, item := range req.Items {
			var err error
			if items, err = cart.AddItem(items, item); err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
		}

		if err := store.Save(c.Request.Context(), cartOwner(c), items); err != nil {
			log.Println("[CART] [ERROR] save failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "cart unavailable")
			return
		}
		c.JSON(http.StatusOK, cartResponse(items))
	}
}

func ClearCart(store cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart"
		defer handlePanic(c, route)

		if err := store.Clear(c.Request.Context(), cartOwner(c)); err != nil {
			log.Println("[CART] [ERROR] clear failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "cart unavailable")
			return
		}
		c.JSON(http.StatusOK, cartResponse(nil))
	}
}

func AddCartItem(store cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"
		defer handlePanic(c, route)

		var item models.CartItem
		if err := c.ShouldBindJSON(&item); err != nil {
			respondValidationError(c, err)
			return
		}
		item.ID = strings.TrimSpace(item.ID)

		mutateCart(c, store, route, http.StatusCreated, func(items []models.CartItem) ([]models.CartItem, error) {
			return cart.AddItem(items, item)
		})
	}
}

// UpdateCartItem sets the quantity of a line. Zero removes it.
func UpdateCartItem(store cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /cart/items/:id"
		defer handlePanic(c, route)

		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		mutateCart(c, store, route, http.StatusOK, func(items []models.CartItem) ([]models.CartItem, error) {
			return cart.SetQuantity(items, c.Param("id"), *req.Quantity)
		})
	}
}

func RemoveCartItem(store cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items/:id"
		defer handlePanic(c, route)

		mutateCart(c, store, route, http.StatusOK, func(items []models.CartItem) ([]models.CartItem, error) {
			return cart.RemoveItem(items, c.Param("id"))
		})
	}
}

func mutateCart(c *gin.Context, store cart.Store, route string, status int, apply func([]models.CartItem) ([]models.CartItem, error)) {
	ctx := c.Request.Context()
	owner := cartOwner(c)

	items, err := store.Load(ctx, owner)
	if err != nil {
		log.Println("[CART] [ERROR] load failed:", err)
		respondWithError(c, http.StatusInternalServerError, route, "cart unavailable")
		return
	}

	updated, err := apply(items)
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		respondWithError(c, http.StatusNotFound, route, err.Error())
		return
	case errors.Is(err, cart.ErrInvalidItem):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
		return
	case err != nil:
		respondWithError(c, http.StatusInternalServerError, route, "cart unavailable")
		return
	}

	if err := store.Save(ctx, owner, updated); err != nil {
		log.Println("[CART] [ERROR] save failed:", err)
		respondWithError(c, http.StatusInternalServerError, route, "cart unavailable")
		return
	}
	c.JSON(status, cartResponse(updated))
}

// CartEvents streams the cart as server-sent events. The current snapshot
// is sent first, then one "cart" event per change until the client leaves.
func CartEvents(store cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart/events"
		defer handlePanic(c, route)

		ctx := c.Request.Context()
		owner := cartOwner(c)

		updates, err := store.Subscribe(ctx, owner)
		if err != nil {
			log.Println("[CART] [ERROR] subscribe failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "cart unavailable")
			return
		}
		items, err := store.Load(ctx, owner)
		if err != nil {
			log.Println("[CART] [ERROR] load failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "cart unavailable")
			return
		}

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.SSEvent("cart", cartResponse(items))
		c.Writer.Flush()

		heartbeat := time.NewTicker(cartHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-updates:
				if !ok {
					return
				}
				c.SSEvent("cart", cartResponse(snapshot))
				c.Writer.Flush()
			case <-heartbeat.C:
				c.SSEvent("ping", time.Now().Unix())
				c.Writer.Flush()
			}
		}
	}
}
