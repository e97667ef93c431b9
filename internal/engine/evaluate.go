package engine

import (
	"time"

	"github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
)

// WarningLead is how long before bus time the warning alarm fires.
const WarningLead = 5 * time.Minute

// Evaluate returns the alarm condition met at now, or nil.
//
// Children are checked in roster order and the first match wins. Within a
// child the order is wakeup, warning, departure. Matching happens at minute
// resolution in now's location.
func Evaluate(roster routine.Roster, now time.Time) *alarm.Alarm {
	current := routine.FormatClock(now)

	for i := range roster {
		child := &roster[i]
		if !child.HasSchedule() {
			continue
		}

		if kind, ok := match(child, now, current); ok {
			return &alarm.Alarm{
				Type:  kind,
				Child: child.Clone(),
			}
		}
	}

	return nil
}

// match checks a single child. Malformed bus times only disable the warning check;
// the departure check is a plain string comparison and cannot match them.
func match(child *routine.Child, now time.Time, current string) (alarm.Type, bool) {
	if child.WakeUpTime == current {
		return alarm.TypeWakeup, true
	}

	if busAt, err := routine.ClockOn(now, child.BusTime); err == nil {
		if routine.FormatClock(busAt.Add(-WarningLead)) == current {
			return alarm.TypeWarning, true
		}
	}

	if child.BusTime == current && child.HasIncompleteTasks() {
		return alarm.TypeDeparture, true
	}

	return "", false
}
