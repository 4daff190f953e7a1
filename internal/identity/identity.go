// Package identity issues and verifies user session tokens and exposes the
// Gin middleware that authenticates API requests with them.
package identity
