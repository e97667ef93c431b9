// Package alarm implements the gRPC transport for the morning alarm daemon.
//
// It adapts domain types to the Struct messages of morningalarm.v1, reads
// the requesting actor from call metadata and exposes a server that calls
// into a provided business-service interface.
package alarm
