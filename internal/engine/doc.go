// Package engine decides when morning alarms fire.
//
// Evaluate is a pure function from a roster snapshot and a wall-clock time to
// an alarm candidate. Machine keeps the single active alarm, applies
// candidates with edge-triggered semantics, and drives a Sounder in lockstep
// with its transitions.
package engine
