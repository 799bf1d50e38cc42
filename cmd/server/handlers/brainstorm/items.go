package brainstorm

import (
	"context"

	"traveler/cmd/server/handlers/handlerutil"
	"traveler/internal/services/brainstorm"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service defines the interface for the brainstorm board service
type Service interface {
	CreateItem(ctx context.Context, tripID bson.ObjectID, creator brainstorm.Creator, req brainstorm.CreateItemRequest, origin ulid.ULID) (*brainstorm.ItemResponse, error)
	ListItems(ctx context.Context, tripID bson.ObjectID) (*brainstorm.ListItemsResponse, error)
	UpdateItem(ctx context.Context, itemID bson.ObjectID, req brainstorm.UpdateItem, origin ulid.ULID) (*brainstorm.ItemResponse, error)
	MoveItem(ctx context.Context, itemID bson.ObjectID, req brainstorm.MoveItemRequest, origin ulid.ULID) (*brainstorm.ItemResponse, error)
	DeleteItem(ctx context.Context, itemID bson.ObjectID, origin ulid.ULID) error
	CreateGroup(ctx context.Context, tripID bson.ObjectID, req brainstorm.CreateGroupRequest, origin ulid.ULID) (*brainstorm.GroupResponse, error)
	ListGroups(ctx context.Context, tripID bson.ObjectID) (*brainstorm.ListGroupsResponse, error)
	UpdateGroup(ctx context.Context, groupID bson.ObjectID, req brainstorm.UpdateGroup, origin ulid.ULID) (*brainstorm.GroupResponse, error)
	DeleteGroup(ctx context.Context, groupID bson.ObjectID, origin ulid.ULID) error
}

// Handlers contains the brainstorm board HTTP handlers
type Handlers struct {
	service   Service
	validator *validator.Validate
}

// NewHandlers creates new brainstorm handlers
func NewHandlers(service Service, validator *validator.Validate) *Handlers {
	return &Handlers{
		service:   service,
		validator: validator,
	}
}

// CreateItem handles item creation
// @Summary Create a brainstorm item
// @Tags brainstorm
// @Accept json
// @Produce json
// @Security Bearer
// @Param tripId path string true "Trip ID"
// @Param X-Client-ID header string false "Caller's WebSocket connection id, excluded from the broadcast"
// @Param request body brainstorm.CreateItemRequest true "Create item request"
// @Success 201 {object} brainstorm.ItemResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /trips/{tripId}/brainstorm/items [post]
func (h *Handlers) CreateItem(c *fiber.Ctx) error {
	creator, err := handlerutil.GetCreator(c)
	if err != nil {
		return err
	}

	tripID, err := handlerutil.ExtractTripID(c, "CreateItem")
	if err != nil {
		return err
	}

	var req brainstorm.CreateItemRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "CreateItem"); err != nil {
		return err
	}

	resp, err := h.service.CreateItem(c.Context(), tripID, creator, req, handlerutil.Origin(c))
	if err != nil {
		return handlerutil.HandleServiceError(err, "CreateItem", creator.ID, nil, brainstorm.ErrItemNotFound)
	}

	return c.Status(201).JSON(resp)
}

// ListItems handles item listing
// @Summary List a trip's brainstorm items, newest first
// @Tags brainstorm
// @Accept json
// @Produce json
// @Security Bearer
// @Param tripId path string true "Trip ID"
// @Success 200 {object} brainstorm.ListItemsResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /trips/{tripId}/brainstorm/items [get]
func (h *Handlers) ListItems(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	tripID, err := handlerutil.ExtractTripID(c, "ListItems")
	if err != nil {
		return err
	}

	resp, err := h.service.ListItems(c.Context(), tripID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "ListItems", userID, nil, brainstorm.ErrItemNotFound)
	}

	return c.JSON(resp)
}

// UpdateItem handles full-field item updates
// @Summary Update a brainstorm item
// @Tags brainstorm
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Item ID"
// @Param X-Client-ID header string false "Caller's WebSocket connection id, excluded from the broadcast"
// @Param request body brainstorm.UpdateItem true "Update item request"
// @Success 200 {object} brainstorm.ItemResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /brainstorm/items/{id} [patch]
func (h *Handlers) UpdateItem(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	itemID, err := handlerutil.ExtractResourceID(c, userID, "UpdateItem", brainstorm.ErrItemNotFound)
	if err != nil {
		return err
	}

	var req brainstorm.UpdateItem
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "UpdateItem"); err != nil {
		return err
	}

	resp, err := h.service.UpdateItem(c.Context(), itemID, req, handlerutil.Origin(c))
	if err != nil {
		return handlerutil.HandleServiceError(err, "UpdateItem", userID, &itemID, brainstorm.ErrItemNotFound)
	}

	return c.JSON(resp)
}

// MoveItem handles drag-end position updates. It patches only the two
// position fields, so a concurrent full edit is never clobbered.
// @Summary Move a brainstorm item
// @Tags brainstorm
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Item ID"
// @Param X-Client-ID header string false "Caller's WebSocket connection id, excluded from the broadcast"
// @Param request body brainstorm.MoveItemRequest true "Move item request"
// @Success 200 {object} brainstorm.ItemResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /brainstorm/items/{id}/position [patch]
func (h *Handlers) MoveItem(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	itemID, err := handlerutil.ExtractResourceID(c, userID, "MoveItem", brainstorm.ErrItemNotFound)
	if err != nil {
		return err
	}

	var req brainstorm.MoveItemRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "MoveItem"); err != nil {
		return err
	}

	resp, err := h.service.MoveItem(c.Context(), itemID, req, handlerutil.Origin(c))
	if err != nil {
		return handlerutil.HandleServiceError(err, "MoveItem", userID, &itemID, brainstorm.ErrItemNotFound)
	}

	return c.JSON(resp)
}

// DeleteItem handles item deletion
// @Summary Delete a brainstorm item
// @Tags brainstorm
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Item ID"
// @Param X-Client-ID header string false "Caller's WebSocket connection id, excluded from the broadcast"
// @Success 204
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /brainstorm/items/{id} [delete]
func (h *Handlers) DeleteItem(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	itemID, err := handlerutil.ExtractResourceID(c, userID, "DeleteItem", brainstorm.ErrItemNotFound)
	if err != nil {
		return err
	}

	err = h.service.DeleteItem(c.Context(), itemID, handlerutil.Origin(c))
	if err != nil {
		return handlerutil.HandleServiceError(err, "DeleteItem", userID, &itemID, brainstorm.ErrItemNotFound)
	}

	return c.SendStatus(204)
}
