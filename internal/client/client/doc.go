// Package client contains the client-side plumbing that talks to the
// outside world.
//
// # Overview
//
//  1. Client: the transport contract with the remote authentication
//     authority (login, current session, logout, ping).
//  2. HTTPClient: the JSON-over-HTTP implementation. The session credential
//     is an HTTP cookie kept in a cookie jar; when a CookieStore is configured
//     the cookies survive process restarts.
//  3. InitDatabase / RunMigrations: open the local SQLite database and apply
//     the embedded goose migrations.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable, non-2xx responses are *StatusError
// (errors.Is(err, ErrUnauthorized) holds for 401), and unexpected 2xx bodies
// wrap ErrMalformedResponse.
//
// # Timeouts
//
// Every request runs under the configured per-call timeout; a request that
// exceeds it fails with ErrUnavailable.
package client
