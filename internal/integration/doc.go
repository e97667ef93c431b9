// Package integration holds end-to-end tests that run the daemon, the client
// commands, the packager and the updater against real listeners.
package integration
