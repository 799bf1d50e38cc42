package brainstorm

import (
	"context"

	"traveler/cmd/server/handlers/handlerutil"
	"traveler/cmd/server/handlers/httperr"
	"traveler/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// Geocoder resolves coordinates to a human-readable place name.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// GeocodeHandlers serves the reverse-geocode lookup used when a map
// click proposes a new place item.
type GeocodeHandlers struct {
	geocoder Geocoder
}

// NewGeocodeHandlers creates new geocode handlers
func NewGeocodeHandlers(geocoder Geocoder) *GeocodeHandlers {
	return &GeocodeHandlers{geocoder: geocoder}
}

type reverseQuery struct {
	Lat *float64 `query:"lat" validate:"required,latitude"`
	Lng *float64 `query:"lng" validate:"required,longitude"`
}

// Reverse handles reverse geocoding. Lookups are best-effort: upstream
// failures return an empty name with 200 so the client draft flow never
// blocks on a third-party outage.
// @Summary Reverse geocode coordinates to a place name
// @Tags geocode
// @Accept json
// @Produce json
// @Security Bearer
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} map[string]string
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /geocode/reverse [get]
func (h *GeocodeHandlers) Reverse(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var q reverseQuery
	if err := c.QueryParser(&q); err != nil || q.Lat == nil || q.Lng == nil {
		logger.L().Warn("invalid reverse geocode query", "handler", "Reverse", "userID", userID.Hex(), "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}
	if *q.Lat < -90 || *q.Lat > 90 || *q.Lng < -180 || *q.Lng > 180 {
		return httperr.Fail(httperr.ErrBadRequest)
	}

	name, err := h.geocoder.ReverseGeocode(c.Context(), *q.Lat, *q.Lng)
	if err != nil {
		logger.L().Warn("reverse geocode lookup failed", "handler", "Reverse", "userID", userID.Hex(), "error", err)
		name = ""
	}

	return c.JSON(fiber.Map{"location_name": name})
}
