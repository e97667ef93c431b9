package audio

import (
	"context"
	"sync"
)

// fakeHandle is a handle whose playback ends only when stopped or finished.
type fakeHandle struct {
	// loop records how the sound was started.
	loop bool
	// source is the asset that was played.
	source string
	// once guards done.
	once sync.Once
	// done is closed by Stop or finish.
	done chan struct{}
	// stops counts Stop calls.
	stops int
}

// Stop ends playback.
func (h *fakeHandle) Stop() error {
	h.stops++
	h.finish()

	return nil
}

// Done is closed once playback has ended.
func (h *fakeHandle) Done() <-chan struct{} {
	return h.done
}

// finish simulates playback reaching its end.
func (h *fakeHandle) finish() {
	h.once.Do(func() { close(h.done) })
}

// fakeDevice records every playback.
type fakeDevice struct {
	// mu guards the fields below.
	mu sync.Mutex
	// initErr is returned by Init.
	initErr error
	// inits counts Init calls.
	inits int
	// handles are all handles ever returned, in order.
	handles []*fakeHandle
}

// Init records the call.
func (d *fakeDevice) Init(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.inits++

	return d.initErr
}

// Play returns a new recorded handle.
//
//nolint:ireturn // Satisfies Device.
func (d *fakeDevice) Play(_ context.Context, asset Asset, loop bool) (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := &fakeHandle{loop: loop, source: asset.Source, done: make(chan struct{})}
	d.handles = append(d.handles, h)

	return h, nil
}

// played returns a copy of the recorded handles.
func (d *fakeDevice) played() []*fakeHandle {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]*fakeHandle(nil), d.handles...)
}
