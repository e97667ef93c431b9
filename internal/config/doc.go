// Package config defines the settings shared by the morning-alarm binaries
// and provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the daemon gRPC address, the roster file location,
// the evaluation timezone and tick interval, the alarm sound source and
// player, and the update folder URL.
package config
