package brainstorm

import (
	"traveler/cmd/server/handlers/handlerutil"
	"traveler/internal/services/brainstorm"

	"github.com/gofiber/fiber/v2"
)

// CreateGroup handles group creation
// @Summary Create a brainstorm group
// @Tags brainstorm
// @Accept json
// @Produce json
// @Security Bearer
// @Param tripId path string true "Trip ID"
// @Param X-Client-ID header string false "Caller's WebSocket connection id, excluded from the broadcast"
// @Param request body brainstorm.CreateGroupRequest true "Create group request"
// @Success 201 {object} brainstorm.GroupResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /trips/{tripId}/brainstorm/groups [post]
func (h *Handlers) CreateGroup(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	tripID, err := handlerutil.ExtractTripID(c, "CreateGroup")
	if err != nil {
		return err
	}

	var req brainstorm.CreateGroupRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "CreateGroup"); err != nil {
		return err
	}

	resp, err := h.service.CreateGroup(c.Context(), tripID, req, handlerutil.Origin(c))
	if err != nil {
		return handlerutil.HandleServiceError(err, "CreateGroup", userID, nil, brainstorm.ErrGroupNotFound)
	}

	return c.Status(201).JSON(resp)
}

// ListGroups handles group listing
// @Summary List a trip's brainstorm groups
// @Tags brainstorm
// @Accept json
// @Produce json
// @Security Bearer
// @Param tripId path string true "Trip ID"
// @Success 200 {object} brainstorm.ListGroupsResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /trips/{tripId}/brainstorm/groups [get]
func (h *Handlers) ListGroups(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	tripID, err := handlerutil.ExtractTripID(c, "ListGroups")
	if err != nil {
		return err
	}

	resp, err := h.service.ListGroups(c.Context(), tripID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "ListGroups", userID, nil, brainstorm.ErrGroupNotFound)
	}

	return c.JSON(resp)
}

// UpdateGroup handles group move/resize/retitle
// @Summary Update a brainstorm group
// @Tags brainstorm
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Group ID"
// @Param X-Client-ID header string false "Caller's WebSocket connection id, excluded from the broadcast"
// @Param request body brainstorm.UpdateGroup true "Update group request"
// @Success 200 {object} brainstorm.GroupResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /brainstorm/groups/{id} [patch]
func (h *Handlers) UpdateGroup(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	groupID, err := handlerutil.ExtractResourceID(c, userID, "UpdateGroup", brainstorm.ErrGroupNotFound)
	if err != nil {
		return err
	}

	var req brainstorm.UpdateGroup
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "UpdateGroup"); err != nil {
		return err
	}

	resp, err := h.service.UpdateGroup(c.Context(), groupID, req, handlerutil.Origin(c))
	if err != nil {
		return handlerutil.HandleServiceError(err, "UpdateGroup", userID, &groupID, brainstorm.ErrGroupNotFound)
	}

	return c.JSON(resp)
}

// DeleteGroup handles group deletion. Items inside the rectangle are
// never touched; groups do not own them.
// @Summary Delete a brainstorm group
// @Tags brainstorm
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Group ID"
// @Param X-Client-ID header string false "Caller's WebSocket connection id, excluded from the broadcast"
// @Success 204
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /brainstorm/groups/{id} [delete]
func (h *Handlers) DeleteGroup(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	groupID, err := handlerutil.ExtractResourceID(c, userID, "DeleteGroup", brainstorm.ErrGroupNotFound)
	if err != nil {
		return err
	}

	err = h.service.DeleteGroup(c.Context(), groupID, handlerutil.Origin(c))
	if err != nil {
		return handlerutil.HandleServiceError(err, "DeleteGroup", userID, &groupID, brainstorm.ErrGroupNotFound)
	}

	return c.SendStatus(204)
}
