// Package packager prepares the release manifest consumed by the updater.
//
// It persists the settings that ship with the release, computes checksums of
// the platform binaries and writes the YAML manifest to upload next to them.
package packager
