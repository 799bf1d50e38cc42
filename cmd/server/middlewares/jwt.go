package middlewares

import (
	"traveler/cmd/server/ctxkeys"
	"traveler/cmd/server/handlers/httperr"
	"traveler/internal/config"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var errMissingUserID = httperr.E{Status: 401, Message: "Invalid token: missing user_id"}

// JWT returns a configured Fiber middleware that:
//
//   - validates the Bearer token signature using cfg.JWTSecret
//   - makes sure the token carries a "user_id" claim
//   - stores user_id plus the optional "name" / "picture" claims in
//     ctx.Locals so downstream handlers can stamp item attribution.
//
// On any problem it bubbles up a 401 via the global httperr handler.
func JWT(cfg config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			// Token already verified at this point.
			token := c.Locals("user").(*jwt.Token)
			claims, _ := token.Claims.(jwt.MapClaims)

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				return httperr.Fail(errMissingUserID)
			}

			c.Locals(ctxkeys.UserIDKey, userID)
			if name, ok := claims["name"].(string); ok {
				c.Locals(ctxkeys.UserNameKey, name)
			}
			if picture, ok := claims["picture"].(string); ok {
				c.Locals(ctxkeys.UserImageKey, picture)
			}
			return c.Next()
		},

		// Override the default "unauthorized" JSON to match the project style
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return httperr.Fail(httperr.ErrUnauthorized)
		},
	})
}
