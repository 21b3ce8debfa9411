// Package docs Placement Portal API
//
// @title  Placement Portal API
// @version 0.1.0
// @description Student registration, login, password reset and account administration.
// @host      localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package docs

import (
	_ "placement-portal/cmd/server/handlers/httperr"
	_ "placement-portal/internal/services/admin"
	_ "placement-portal/internal/services/auth"
)
