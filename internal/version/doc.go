// Package version carries the build metadata of the morning-alarm binaries.
//
// Version, Commit and BuildTime are set through -ldflags -X at release time.
// The updater compares the daemon's short version with the published manifest.
package version
