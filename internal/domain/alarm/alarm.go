package alarm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/morning-alarm/internal/domain/routine"
)

// Type is the kind of alarm condition.
type Type string

const (
	// TypeWakeup fires at the child's wake-up time.
	TypeWakeup Type = "wakeup"
	// TypeWarning fires five minutes before the child's bus time.
	TypeWarning Type = "warning"
	// TypeDeparture fires at bus time while tasks are still open.
	TypeDeparture Type = "departure"
)

// ErrUnknownType is returned by ParseType for unsupported values.
var ErrUnknownType = errors.New("unknown alarm type")

// ParseType converts user input to a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeWakeup, TypeWarning, TypeDeparture:
		return t, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownType)
	}
}

// Actor identifies who acted on an alarm from a client.
type Actor struct {
	// Hostname is the machine name where the action was performed.
	Hostname string
	// Username is the system user who performed the action.
	Username string
}

// Clone returns a copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// Alarm is an alarm condition for one child.
// The evaluator produces it as a candidate; the state machine keeps it as the active alarm.
type Alarm struct {
	// Type is the alarm kind.
	Type Type
	// Child is a snapshot of the child the alarm is about.
	Child *routine.Child
	// TriggeredAt is when the alarm became active; zero for candidates.
	TriggeredAt time.Time
}

// ChildID returns the child identifier or an empty string.
func (a *Alarm) ChildID() string {
	if a == nil || a.Child == nil {
		return ""
	}

	return a.Child.ID
}

// SameCondition reports whether both alarms describe the same type for the same child.
func (a *Alarm) SameCondition(other *Alarm) bool {
	if a == nil || other == nil {
		return a == other
	}

	return a.Type == other.Type && a.ChildID() == other.ChildID()
}

// Clone returns a deep copy of the alarm.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	return &Alarm{
		Type:        a.Type,
		Child:       a.Child.Clone(),
		TriggeredAt: a.TriggeredAt,
	}
}
