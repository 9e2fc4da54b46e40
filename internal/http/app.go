// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"ecoguard_backend/platform/config"
	"ecoguard_backend/platform/httpkit"
	"ecoguard_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
	GetEnv() string
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// main.go populates it and passes it to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	Health HealthChecker
	// Roles resolves the actor's roles from the manager allowlist.
	Roles   httpkit.RoleResolver
	Modules []Module
}
