package handlerutil

import (
	"errors"

	"traveler/cmd/server/ctxkeys"
	"traveler/cmd/server/handlers/httperr"
	"traveler/internal/logger"
	"traveler/internal/services/brainstorm"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// OriginHeader names the request header carrying the caller's WebSocket
// connection id. Mutation broadcasts skip that connection so clients
// never receive an echo of their own change.
const OriginHeader = "X-Client-ID"

func NotFoundError(err error) error {
	return httperr.Fail(httperr.E{
		Status:  404,
		Message: err.Error(),
	})
}

// GetUserID extracts user ID from fiber context
func GetUserID(c *fiber.Ctx) (bson.ObjectID, error) {
	userIDStr, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok {
		logger.L().Error("user ID not found in context", "handler", "getUserID", "path", c.Path())
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		logger.L().Error("invalid user ID", "handler", "getUserID", "userIDStr", userIDStr, "path", c.Path(), "error", err)
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	return userID, nil
}

// GetCreator builds the item attribution from the caller's JWT claims.
func GetCreator(c *fiber.Ctx) (brainstorm.Creator, error) {
	userID, err := GetUserID(c)
	if err != nil {
		return brainstorm.Creator{}, err
	}

	name, _ := c.Locals(ctxkeys.UserNameKey).(string)
	image, _ := c.Locals(ctxkeys.UserImageKey).(string)

	return brainstorm.Creator{
		ID:    userID,
		Name:  name,
		Image: image,
	}, nil
}

// Origin parses the optional X-Client-ID header into the connection ULID
// used for broadcast self-exclusion. Absent or malformed headers yield a
// zero ULID, which excludes nobody.
func Origin(c *fiber.Ctx) ulid.ULID {
	raw := c.Get(OriginHeader)
	if raw == "" {
		return ulid.ULID{}
	}

	origin, err := ulid.Parse(raw)
	if err != nil {
		logger.L().Debug("malformed origin header", "handler", "origin", "value", raw, "path", c.Path())
		return ulid.ULID{}
	}
	return origin
}

// ParseAndValidateBody parses request body and validates it
func ParseAndValidateBody(c *fiber.Ctx, req any, validator *validator.Validate, handlerName string) error {
	userID, _ := GetUserID(c)
	userIDHex := userID.Hex()

	if err := c.BodyParser(req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName, "userID", userIDHex, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := validator.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName, "userID", userIDHex, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// ExtractTripID extracts and validates the trip ID from the URL.
func ExtractTripID(c *fiber.Ctx, handlerName string) (bson.ObjectID, error) {
	tripIDStr := c.Params("tripId")
	tripID, err := bson.ObjectIDFromHex(tripIDStr)
	if err != nil {
		logger.L().Warn("invalid trip ID parameter", "handler", handlerName, "tripIDStr", tripIDStr, "error", err)
		return bson.ObjectID{}, httperr.Fail(httperr.ErrInvalidTripID)
	}
	return tripID, nil
}

// ExtractResourceID extracts and validates a resource ID from the :id
// URL parameter. Malformed ids map to the resource's not-found error so
// probing for ids and probing for formats are indistinguishable.
func ExtractResourceID(c *fiber.Ctx, userID bson.ObjectID, handlerName string, notFoundErr error) (bson.ObjectID, error) {
	idStr := c.Params("id")
	if idStr == "" {
		logger.L().Warn("missing resource ID parameter", "handler", handlerName, "userID", userID.Hex(), "path", c.Path())
		return bson.ObjectID{}, NotFoundError(notFoundErr)
	}

	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		logger.L().Warn("invalid resource ID parameter", "handler", handlerName, "userID", userID.Hex(), "idStr", idStr, "error", err)
		return bson.ObjectID{}, NotFoundError(notFoundErr)
	}

	return id, nil
}

// HandleServiceError handles common service error responses
func HandleServiceError(err error, handlerName string, userID bson.ObjectID, resourceID *bson.ObjectID, notFoundErr error) error {
	userIDHex := userID.Hex()
	logFields := []any{"handler", handlerName, "userID", userIDHex, "error", err}

	if resourceID != nil {
		logFields = append(logFields, "resourceID", resourceID.Hex())
	}

	if errors.Is(err, notFoundErr) {
		logger.L().Info("resource not found", logFields...)
		return NotFoundError(notFoundErr)
	}

	logger.L().Error("service operation failed", logFields...)
	return httperr.Fail(httperr.E{
		Status:  500,
		Message: err.Error(),
	})
}
