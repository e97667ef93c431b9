// Package clock drives periodic evaluation from wall-clock time.
package clock
