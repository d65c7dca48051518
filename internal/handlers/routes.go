package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"localserve/internal/cart"
	"localserve/internal/checkout"
	"localserve/internal/idempotency"
	"localserve/internal/middleware"
	"localserve/internal/pricing"
)

// Deps is everything the routes are built from.
type Deps struct {
	Ping          func(ctx context.Context) error
	Tokens        TokenConfig
	Accounts      AccountRepository
	RefreshTokens TokenRepository
	Carts         cart.Store
	Orders        OrderRepository
	Bookings      BookingRepository
	Users         AddressRepository
	Claims        idempotency.Claimer
	Rates         pricing.Rates
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	secret := d.Tokens.Secret
	svc := checkout.NewService(d.Carts, d.Orders)

	r.GET("/healthz", Health(d.Ping))

	auth := r.Group("/auth")
	{
		auth.POST("/register", Register(d.Accounts, d.RefreshTokens, d.Tokens))
		auth.POST("/login", Login(d.Accounts, d.RefreshTokens, d.Tokens))
		auth.GET("/me", middleware.UserAuth(secret), GetMe(d.Accounts))
		auth.POST("/refresh", Refresh(d.Accounts, d.RefreshTokens, d.Tokens))
		auth.POST("/logout", Logout(d.RefreshTokens))
	}
	r.POST("/admin/login", AdminLogin(d.Accounts, d.RefreshTokens, d.Tokens))

	user := r.Group("/user")
	user.Use(middleware.UserAuth(secret))
	{
		user.GET("/addresses", GetUserAddresses(d.Users))
		user.POST("/addresses", CreateUserAddress(d.Users))
		user.PUT("/addresses/:id/default", SetDefaultUserAddress(d.Users))
		user.DELETE("/addresses/:id", DeleteUserAddress(d.Users))
	}

	shop := r.Group("/")
	shop.Use(middleware.OptionalUser(secret), middleware.CartOwner())
	{
		shop.GET("/cart", GetCart(d.Carts))
		shop.PUT("/cart", ReplaceCart(d.Carts))
		shop.DELETE("/cart", ClearCart(d.Carts))
		shop.POST("/cart/items", AddCartItem(d.Carts))
		shop.PATCH("/cart/items/:id", UpdateCartItem(d.Carts))
		shop.DELETE("/cart/items/:id", RemoveCartItem(d.Carts))
		shop.GET("/cart/events", CartEvents(d.Carts))

		shop.GET("/checkout", GetCheckout(svc, d.Users))
		shop.POST("/checkout/validate", ValidateCheckout(svc, d.Users))

		shop.POST("/orders", CreateOrder(svc, d.Users, d.Claims))
		shop.GET("/orders", GetMyOrders(d.Orders))
		shop.GET("/orders/:id", GetOrder(d.Orders))
		shop.GET("/orders/:id/tracking", GetOrderTracking(d.Orders))

		shop.POST("/bookings", CreateBooking(d.Bookings, d.Rates))
		shop.GET("/bookings/:id", GetBooking(d.Bookings))
	}

	pricingGroup := r.Group("/pricing")
	{
		pricingGroup.GET("/controls", GetPricingControls(d.Rates))
		pricingGroup.POST("/estimate", EstimatePrice(d.Rates))
		pricingGroup.POST("/quote", DownloadQuote(d.Rates))
		pricingGroup.GET("/distance", GetHubDistance())
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(secret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})
		admin.GET("/orders", GetAllOrders(d.Orders))
		admin.PATCH("/orders/:id/status", UpdateOrderStatus(d.Orders))
		admin.DELETE("/orders/:id", DeleteOrder(d.Orders))
	}
}
