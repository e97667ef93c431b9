package audio

import (
	"context"
)

// Device produces sound.
type Device interface {
	// Init prepares the device; playback before a successful Init fails.
	Init(ctx context.Context) error
	// Play starts playing asset and returns its handle. When loop is set the
	// asset repeats until the handle is stopped.
	Play(ctx context.Context, asset Asset, loop bool) (Handle, error)
}

// Handle controls one playing sound.
type Handle interface {
	// Stop ends playback and releases the sound. It blocks until released
	// and is safe to call more than once.
	Stop() error
	// Done is closed once playback has ended for any reason.
	Done() <-chan struct{}
}
