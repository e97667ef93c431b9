package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
	"github.com/oshokin/morning-alarm/internal/engine"
	"github.com/oshokin/morning-alarm/internal/logger"
	repo "github.com/oshokin/morning-alarm/internal/repository/roster"
)

// Chimer plays the task completion sound.
type Chimer interface {
	PlayTaskCompletionChime(ctx context.Context) error
}

// service owns the roster and drives the alarm state machine.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// repo handles persistent storage of the roster.
	repo repo.Repository
	// machine holds the active alarm.
	machine *engine.Machine
	// chimer plays the task completion chime; nil means silent.
	chimer Chimer
	// location is the timezone alarms are evaluated in.
	location *time.Location
	// now is the wall clock used for roster timestamps.
	now func() time.Time

	// mu protects roster and lastUpdated.
	mu sync.RWMutex
	// roster is the ordered list of children.
	roster routine.Roster
	// lastUpdated is when the roster last changed.
	lastUpdated time.Time
}

// serviceOption configures a service.
type serviceOption func(*service)

// withLocation evaluates alarms in loc.
func withLocation(loc *time.Location) serviceOption {
	return func(s *service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// withNow overrides the wall clock.
func withNow(now func() time.Time) serviceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// newService creates a service backed by the provided repository.
// A missing or empty roster is replaced by the default roster and saved.
func newService(
	ctx context.Context,
	repository repo.Repository,
	machine *engine.Machine,
	chimer Chimer,
	opts ...serviceOption,
) (*service, error) {
	s := &service{
		repo:     repository,
		machine:  machine,
		chimer:   chimer,
		location: time.Local,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.machine == nil {
		s.machine = engine.NewMachine(nil, engine.WithNow(s.now))
	}

	if repository == nil {
		s.roster = routine.DefaultRoster()

		return s, nil
	}

	snapshot, err := repository.Load(ctx)

	switch {
	case err == nil:
		s.roster = snapshot.Roster
		s.lastUpdated = snapshot.LastUpdated
	case errors.Is(err, repo.ErrNotFound):
		// Seeded below.
	default:
		return nil, fmt.Errorf("load roster: %w", err)
	}

	if len(s.roster) == 0 {
		s.roster = routine.DefaultRoster()
		s.lastUpdated = s.now()

		if err = repository.Save(ctx, &repo.Snapshot{Roster: s.roster, LastUpdated: s.lastUpdated}); err != nil {
			return nil, fmt.Errorf("save default roster: %w", err)
		}

		logger.InfoKV(ctx, "Seeded default roster", "children", len(s.roster))
	}

	// A broken entry only disables the affected alarms, so keep serving.
	if err = s.roster.Validate(); err != nil {
		logger.WarnKV(ctx, "Roster has invalid entries", "error", err)
	}

	return s, nil
}

// Tick evaluates the roster at now in the configured timezone.
func (s *service) Tick(ctx context.Context, now time.Time) {
	s.mu.RLock()
	roster := s.roster.Clone()
	s.mu.RUnlock()

	s.machine.Tick(ctx, roster, now.In(s.location))
}

// CurrentAlarm returns the active alarm or nil.
func (s *service) CurrentAlarm(context.Context) *domain.Alarm {
	return s.machine.CurrentAlarm()
}

// DismissAlarm dismisses the active alarm and returns it, or nil when idle.
func (s *service) DismissAlarm(ctx context.Context, actor *domain.Actor) *domain.Alarm {
	current := s.machine.CurrentAlarm()

	if !s.machine.Dismiss(ctx) {
		logger.InfoKV(ctx, "Dismiss requested while idle", "actor", actor)

		return nil
	}

	logger.InfoKV(ctx, "Alarm dismissed by client", "actor", actor)

	return current
}

// TriggerAlarm fires kind for the child with childID immediately.
func (s *service) TriggerAlarm(
	ctx context.Context,
	actor *domain.Actor,
	kind domain.Type,
	childID string,
) (*domain.Alarm, error) {
	s.mu.RLock()
	child := s.roster.Find(childID).Clone()
	s.mu.RUnlock()

	if child == nil {
		return nil, fmt.Errorf("%s: %w", childID, routine.ErrUnknownChild)
	}

	logger.InfoKV(ctx, "Manual alarm requested", "actor", actor, "type", kind, "child_id", childID)

	return s.machine.TriggerManually(ctx, kind, child), nil
}

// Roster returns a copy of the roster and its last update time.
func (s *service) Roster(context.Context) (routine.Roster, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.roster.Clone(), s.lastUpdated
}

// ToggleTask flips a task, persists the roster and plays the chime when the
// task becomes done. The roster is unchanged if saving fails.
func (s *service) ToggleTask(
	ctx context.Context,
	actor *domain.Actor,
	childID, taskID string,
) (*routine.Child, error) {
	s.mu.Lock()

	next := s.roster.Clone()

	task, err := next.ToggleTask(childID, taskID)
	if err != nil {
		s.mu.Unlock()

		return nil, err
	}

	updated := s.now()

	if s.repo != nil {
		if err = s.repo.Save(ctx, &repo.Snapshot{Roster: next, LastUpdated: updated}); err != nil {
			s.mu.Unlock()

			logger.Errorf(ctx, "Failed to persist roster: %v", err)

			return nil, fmt.Errorf("persist roster: %w", err)
		}
	}

	s.roster = next
	s.lastUpdated = updated
	child := next.Find(childID).Clone()

	s.mu.Unlock()

	logger.InfoKV(ctx, "Task toggled",
		"actor", actor, "child_id", childID, "task_id", taskID, "done", task.Done)

	if !task.Done {
		return child, nil
	}

	if s.chimer != nil {
		if err = s.chimer.PlayTaskCompletionChime(ctx); err != nil {
			logger.DebugKV(ctx, "Task chime unavailable", "error", err)
		}
	}

	if progress := child.Progress(); progress.Done == progress.Total {
		logger.InfoKV(ctx, "All tasks done, ready for the bus", "child_id", child.ID, "name", child.Name)
	}

	return child, nil
}

// Subscribe forwards to the state machine's observers.
func (s *service) Subscribe() (<-chan engine.Event, func()) {
	return s.machine.Subscribe()
}
