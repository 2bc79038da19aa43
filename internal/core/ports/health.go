package ports

//go:generate mockgen -source=health.go -destination=mocks/mock_health.go -package=mocks

import "context"

// HealthChecker is one dependency reported by GET /health.
type HealthChecker interface {
	// Ping returns nil while the dependency answers.
	Ping(ctx context.Context) error
	// Name labels the dependency in the health payload ("postgresql", "redis", "memory").
	Name() string
}
