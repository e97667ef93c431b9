package engine

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
	"github.com/oshokin/morning-alarm/internal/logger"
)

// Sounder is the audio seam driven by the machine's transitions.
type Sounder interface {
	StartAlarmSound(ctx context.Context, looping bool) error
	StopAlarmSound(ctx context.Context) error
}

// EventKind tells observers what happened to the active alarm.
type EventKind string

const (
	// EventTriggered is published when an alarm becomes active, including re-triggers.
	EventTriggered EventKind = "triggered"
	// EventDismissed is published when the active alarm is dismissed.
	EventDismissed EventKind = "dismissed"
)

// Event is a state change notification.
type Event struct {
	// Kind is the transition that happened.
	Kind EventKind
	// Alarm is the alarm that was triggered or dismissed.
	Alarm *alarm.Alarm
}

// subscriberBuffer is the per-subscriber queue length; slower subscribers lose events.
const subscriberBuffer = 16

// Machine holds the single active alarm.
//
// Transitions are committed under mu and are immediately visible to readers.
// Each commit draws a ticket under mu; its sound call runs after mu is
// released and waits until every earlier ticket has been served, so sound
// calls happen in commit order without holding up readers.
type Machine struct {
	// sounder receives start/stop calls; nil means silent.
	sounder Sounder
	// now supplies TriggeredAt for manual triggers.
	now func() time.Time

	// mu guards active, subs and nextTicket.
	mu sync.Mutex
	// active is the current alarm, nil when idle.
	active *alarm.Alarm
	// subs are the observer channels.
	subs map[chan Event]struct{}
	// nextTicket is handed to the next committed transition.
	nextTicket uint64

	// effects guards serving.
	effects sync.Mutex
	// turn is signaled whenever serving advances.
	turn *sync.Cond
	// serving is the ticket whose sound call may run now.
	serving uint64
}

// Option configures a Machine.
type Option func(*Machine)

// WithNow overrides the time source used for manual triggers.
func WithNow(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMachine creates an idle machine driving the provided sounder.
func NewMachine(sounder Sounder, opts ...Option) *Machine {
	m := &Machine{
		sounder: sounder,
		now:     time.Now,
		subs:    make(map[chan Event]struct{}),
	}

	m.turn = sync.NewCond(&m.effects)

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// CurrentAlarm returns a snapshot of the active alarm, or nil when idle.
func (m *Machine) CurrentAlarm() *alarm.Alarm {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.active.Clone()
}

// Tick evaluates the roster at now and applies the result.
// It reports whether a trigger happened. A candidate equal to the active
// alarm is ignored, and no candidate never dismisses the active alarm.
func (m *Machine) Tick(ctx context.Context, roster routine.Roster, now time.Time) bool {
	candidate := Evaluate(roster, now)
	if candidate == nil {
		return false
	}

	m.mu.Lock()

	if m.active.SameCondition(candidate) {
		m.mu.Unlock()

		return false
	}

	candidate.TriggeredAt = now
	m.trigger(ctx, candidate)

	return true
}

// TriggerManually activates an alarm bypassing the evaluator.
// It always fires, even when the same condition is already active.
func (m *Machine) TriggerManually(ctx context.Context, kind alarm.Type, child *routine.Child) *alarm.Alarm {
	next := &alarm.Alarm{
		Type:        kind,
		Child:       child.Clone(),
		TriggeredAt: m.now(),
	}

	m.mu.Lock()
	m.trigger(ctx, next)

	return next.Clone()
}

// Dismiss returns the machine to idle. It is a no-op when nothing is active
// and reports whether an alarm was dismissed.
func (m *Machine) Dismiss(ctx context.Context) bool {
	m.mu.Lock()

	if m.active == nil {
		m.mu.Unlock()

		return false
	}

	dismissed := m.active
	m.active = nil
	m.publish(Event{Kind: EventDismissed, Alarm: dismissed.Clone()})

	ticket := m.takeTicket()
	m.mu.Unlock()

	m.awaitTurn(ticket)
	defer m.finishTurn()

	logger.InfoKV(ctx, "Alarm dismissed", "type", dismissed.Type, "child_id", dismissed.ChildID())

	if m.sounder == nil {
		return true
	}

	if err := m.sounder.StopAlarmSound(ctx); err != nil {
		logger.WarnKV(ctx, "Failed to stop alarm sound", "error", err)
	}

	return true
}

// Subscribe registers an observer. The returned function unsubscribes and
// closes the channel; it is safe to call more than once.
func (m *Machine) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// trigger commits next as the active alarm and starts the sound.
// It must be called with mu held and releases it.
func (m *Machine) trigger(ctx context.Context, next *alarm.Alarm) {
	replaced := m.active
	m.active = next
	m.publish(Event{Kind: EventTriggered, Alarm: next.Clone()})

	ticket := m.takeTicket()
	m.mu.Unlock()

	m.awaitTurn(ticket)
	defer m.finishTurn()

	if replaced != nil {
		logger.InfoKV(ctx, "Alarm replaced",
			"previous_type", replaced.Type, "previous_child_id", replaced.ChildID(),
			"type", next.Type, "child_id", next.ChildID())
	} else {
		logger.InfoKV(ctx, "Alarm triggered", "type", next.Type, "child_id", next.ChildID())
	}

	if m.sounder == nil {
		return
	}

	// The alarm stays visible even if it cannot be heard.
	if err := m.sounder.StartAlarmSound(ctx, true); err != nil {
		logger.WarnKV(ctx, "Alarm sound unavailable, continuing silently", "error", err)
	}
}

// takeTicket reserves the next place in the sound call order. Called with mu held.
func (m *Machine) takeTicket() uint64 {
	ticket := m.nextTicket
	m.nextTicket++

	return ticket
}

// awaitTurn blocks until every earlier ticket has finished its sound call.
// It must be called without mu.
func (m *Machine) awaitTurn(ticket uint64) {
	m.effects.Lock()
	defer m.effects.Unlock()

	for m.serving != ticket {
		m.turn.Wait()
	}
}

// finishTurn lets the next ticket run.
func (m *Machine) finishTurn() {
	m.effects.Lock()
	m.serving++
	m.effects.Unlock()

	m.turn.Broadcast()
}

// publish fans an event out without blocking. Called with mu held.
func (m *Machine) publish(event Event) {
	for ch := range m.subs {
		select {
		case ch <- event:
		default:
			// Subscriber is behind; drop rather than stall the transition.
		}
	}
}
