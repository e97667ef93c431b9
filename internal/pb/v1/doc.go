// Package v1 defines the morningalarm.v1.AlarmService gRPC contract.
//
// Messages are the protobuf well-known types Empty and Struct, so no code
// generation step is needed; the field layout of each Struct is fixed by the
// conversion helpers in this package, which are the only place that knows
// the wire names. The roster layout doubles as the on-disk roster format.
package v1
