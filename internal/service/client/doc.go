// Package client implements the morning-alarm presentation commands.
//
// Each command connects to the daemon, identifies the caller for audit
// logging and prints human-readable output: the current alarm, the roster
// with progress and bus countdowns, or a live alarm feed.
package client
