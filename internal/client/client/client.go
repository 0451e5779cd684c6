package client

import (
	"context"

	"github.com/geotrack/tracker-client/internal/client/models"
)

// Client is the transport contract with the remote authentication authority.
// Implementations report failures as errors; the auth service turns them into
// user-facing results.
type Client interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}
