// Package docs Traveler API
//
// @title  Traveler API
// @version 0.1.0
// @description Trip brainstorm board CRUD and live updates.
// @host      localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package docs

import (
	_ "traveler/cmd/server/handlers/httperr"
	_ "traveler/internal/services/brainstorm"
)
