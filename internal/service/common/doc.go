// Package common holds helpers shared by several services.
//
// It provides a gRPC client wrapper with timeouts that attaches the calling
// actor (hostname/username) to every request, and process helpers used to
// keep a single daemon running and to stop binaries before an update.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
