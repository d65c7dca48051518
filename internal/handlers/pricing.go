package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"localserve/internal/geo"
	"localserve/internal/pricing"
)

const quotePlaceholder = "Quote download will be available soon."

// estimate clamps the inputs to the control ranges and prices them.
func estimate(c *gin.Context, rates pricing.Rates, route string) (pricing.Input, pricing.Quote, bool) {
	var in pricing.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondValidationError(c, err)
		return in, pricing.Quote{}, false
	}

	in = pricing.Clamp(in)
	quote, err := pricing.Calculate(in, rates)
	if errors.Is(err, pricing.ErrUnknownService) {
		respondWithError(c, http.StatusBadRequest, route, err.Error())
		return in, pricing.Quote{}, false
	}
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "pricing failed")
		return in, pricing.Quote{}, false
	}
	return in, quote, true
}

func EstimatePrice(rates pricing.Rates) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /pricing/estimate"
		defer handlePanic(c, route)

		in, quote, ok := estimate(c, rates, route)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"inputs": in, "quote": quote})
	}
}

// DownloadQuote prices the inputs and answers with a placeholder notice in
// place of a document.
func DownloadQuote(rates pricing.Rates) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /pricing/quote"
		defer handlePanic(c, route)

		_, quote, ok := estimate(c, rates, route)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": quotePlaceholder, "quote": quote})
	}
}

// GetPricingControls returns the ranges of the estimator controls and the
// technician rate card.
func GetPricingControls(rates pricing.Rates) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"distance":    pricing.DistanceBounds,
			"weight":      pricing.WeightBounds,
			"itemCount":   pricing.ItemCountBounds,
			"guests":      pricing.GuestBounds,
			"duration":    pricing.DurationBounds,
			"technicians": rates.Technician,
			"defaultRate": rates.DefaultRate,
		})
	}
}

// GetHubDistance returns the distance in km from the service hub.
func GetHubDistance() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /pricing/distance"
		defer handlePanic(c, route)

		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		p := geo.Point{Lat: lat, Lng: lng}
		if latErr != nil || lngErr != nil || !p.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "lat and lng must be valid coordinates")
			return
		}

		km := geo.FromReference(p)
		c.JSON(http.StatusOK, gin.H{
			"from":       geo.Reference,
			"to":         p,
			"distanceKm": math.Round(km*100) / 100,
		})
	}
}
