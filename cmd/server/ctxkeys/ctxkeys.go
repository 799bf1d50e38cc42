// Package ctxkeys centralizes the fiber.Ctx.Locals keys shared between
// middlewares and handlers.
package ctxkeys

const (
	// UserIDKey holds the authenticated user's id (hex string).
	UserIDKey = "userID"
	// UserNameKey holds the authenticated user's display name.
	UserNameKey = "userName"
	// UserImageKey holds the authenticated user's avatar path, may be empty.
	UserImageKey = "userImage"
	// ParentCtxKey carries the request-bound context across the
	// WebSocket upgrade boundary.
	ParentCtxKey = "parentCtx"
)
