package repositories

import "context"

// Repository aggregates every repository the service uses
type Repository interface {
	// User domain
	User() UserRepository
	Profile() ProfileRepository

	// Content domain
	Content() ContentRepository

	// External identity provider; not part of database transactions
	Identity() IdentityRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}
