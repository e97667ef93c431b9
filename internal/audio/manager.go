package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/morning-alarm/internal/logger"
)

// ErrNotReady is returned by playback calls before a successful Initialize.
var ErrNotReady = errors.New("audio is not ready")

// Manager owns the alarm sound channel and the task completion chime.
// At most one alarm handle is live at any time.
type Manager struct {
	// device produces the sound.
	device Device
	// loader caches the assets.
	loader *Loader
	// alarmSource is the configured alarm asset.
	alarmSource string

	// mu guards every field below.
	mu sync.Mutex
	// ready is set once Initialize succeeded.
	ready bool
	// armed is set by Initialize and cleared by Close; while armed and not
	// ready, playback calls retry initialization.
	armed bool
	// alarm is the live alarm handle, nil when silent.
	alarm Handle
	// chimes are the chime handles still playing.
	chimes map[Handle]struct{}
}

// NewManager creates a manager that is not ready until Initialize succeeds.
// An empty alarmSource selects the builtin alarm tone.
func NewManager(device Device, loader *Loader, alarmSource string) *Manager {
	if alarmSource == "" {
		alarmSource = BuiltinAlarm
	}

	if loader == nil {
		loader = NewLoader(nil)
	}

	return &Manager{
		device:      device,
		loader:      loader,
		alarmSource: alarmSource,
		chimes:      make(map[Handle]struct{}),
	}
}

// Initialize prepares the device and preloads the assets. On failure the
// manager stays silent; Initialize may be called again, and every later
// playback call retries it until it succeeds or the manager is closed.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.armed = true

	if m.ready {
		return nil
	}

	if err := m.initialize(ctx); err != nil {
		logger.WarnKV(ctx, "Audio unavailable, alarms will be silent", "error", err)

		return err
	}

	m.ready = true

	logger.InfoKV(ctx, "Audio ready", "alarm_sound", m.alarmSource)

	return nil
}

// initialize runs the fallible part of Initialize.
func (m *Manager) initialize(ctx context.Context) error {
	if m.device == nil {
		return fmt.Errorf("no device: %w", ErrNoPlayer)
	}

	if err := m.device.Init(ctx); err != nil {
		return fmt.Errorf("init device: %w", err)
	}

	for _, source := range []string{m.alarmSource, BuiltinChime} {
		if _, err := m.loader.Load(ctx, source); err != nil {
			return err
		}
	}

	return nil
}

// Ready reports whether Initialize has succeeded.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ready
}

// StartAlarmSound releases any live alarm handle and starts the alarm asset,
// repeating it until stopped when looping is set.
func (m *Manager) StartAlarmSound(ctx context.Context, looping bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopAlarm(ctx)

	if err := m.ensureReady(ctx); err != nil {
		return err
	}

	asset, err := m.loader.Load(ctx, m.alarmSource)
	if err != nil {
		return err
	}

	h, err := m.device.Play(ctx, asset, looping)
	if err != nil {
		return fmt.Errorf("play alarm: %w", err)
	}

	m.alarm = h

	logger.DebugKV(ctx, "Alarm sound started", "looping", looping)

	return nil
}

// StopAlarmSound stops and releases the alarm handle; it is a no-op when silent.
func (m *Manager) StopAlarmSound(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopAlarm(ctx)

	return nil
}

// PlayTaskCompletionChime plays the short rising chime once on its own
// handle. It may overlap the alarm sound.
func (m *Manager) PlayTaskCompletionChime(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(ctx); err != nil {
		return err
	}

	asset, err := m.loader.Load(ctx, BuiltinChime)
	if err != nil {
		return err
	}

	h, err := m.device.Play(ctx, asset, false)
	if err != nil {
		return fmt.Errorf("play chime: %w", err)
	}

	m.chimes[h] = struct{}{}

	go func() {
		<-h.Done()

		m.mu.Lock()
		delete(m.chimes, h)
		m.mu.Unlock()
	}()

	return nil
}

// Close stops every sound. The manager must be initialized again before reuse.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopAlarm(ctx)

	for h := range m.chimes {
		if err := h.Stop(); err != nil {
			logger.WarnKV(ctx, "Failed to stop chime", "error", err)
		}

		delete(m.chimes, h)
	}

	m.ready = false
	m.armed = false

	return nil
}

// ensureReady retries initialization for an armed but degraded manager,
// e.g. when the sound server came up after the daemon. Called with mu held.
func (m *Manager) ensureReady(ctx context.Context) error {
	if m.ready {
		return nil
	}

	if !m.armed {
		return ErrNotReady
	}

	if err := m.initialize(ctx); err != nil {
		logger.DebugKV(ctx, "Audio still unavailable", "error", err)

		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	m.ready = true

	logger.InfoKV(ctx, "Audio recovered", "alarm_sound", m.alarmSource)

	return nil
}

// stopAlarm releases the live alarm handle. Called with mu held.
func (m *Manager) stopAlarm(ctx context.Context) {
	if m.alarm == nil {
		return
	}

	if err := m.alarm.Stop(); err != nil {
		logger.WarnKV(ctx, "Failed to stop alarm sound", "error", err)
	}

	m.alarm = nil

	logger.Debug(ctx, "Alarm sound stopped")
}
