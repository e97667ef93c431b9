package client

import (
	"fmt"
	"io"
	"strings"
	"time"

	domain "github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
)

// alarmContent is the overlay text of one alarm type.
type alarmContent struct {
	// title is the headline.
	title string
	// message is formatted with the child's name.
	message string
	// action is the suggested dismiss label.
	action string
}

// contentByType holds the overlay text per alarm type.
//
//nolint:gochecknoglobals // Constant table.
var contentByType = map[domain.Type]alarmContent{
	domain.TypeWakeup: {
		title:   "Good Morning!",
		message: "Time to wake up, %s! 🌅",
		action:  "Start My Day",
	},
	domain.TypeWarning: {
		title:   "Almost Time!",
		message: "5 minutes until bus time, %s! 🚌",
		action:  "Check Tasks",
	},
	domain.TypeDeparture: {
		title:   "BUS TIME!",
		message: "Hurry, %s! The bus is here! 🏃💨",
		action:  "I'M GOING!",
	},
}

// FormatAlarm renders the alarm as a single line.
func FormatAlarm(a *domain.Alarm) string {
	if a == nil {
		return "No active alarm"
	}

	content, ok := contentByType[a.Type]
	if !ok {
		return "Attention! An alarm is sounding."
	}

	name := a.ChildID()
	if a.Child != nil && a.Child.Name != "" {
		name = a.Child.Name
	}

	return fmt.Sprintf("%s %s (since %s, dismiss: %q)",
		content.title,
		fmt.Sprintf(content.message, name),
		a.TriggeredAt.Format(routine.ClockLayout),
		content.action)
}

// WriteRoster prints every child with schedule, countdown, progress and tasks.
func WriteRoster(w io.Writer, roster routine.Roster, now time.Time) error {
	var b strings.Builder

	for i := range roster {
		child := &roster[i]
		progress := child.Progress()

		fmt.Fprintf(&b, "%s %s [%s]\n", child.Avatar, child.Name, child.ID)
		fmt.Fprintf(&b, "  wake up %s, bus %s", orDash(child.WakeUpTime), orDash(child.BusTime))

		if countdown := routine.BusCountdown(child, now); countdown != "" {
			fmt.Fprintf(&b, " (%s)", countdown)
		}

		fmt.Fprintf(&b, "\n  progress %d/%d (%.0f%%)\n", progress.Done, progress.Total, progress.Percent())

		for _, task := range child.Tasks {
			mark := " "
			if task.Done {
				mark = "x"
			}

			fmt.Fprintf(&b, "  [%s] %s %s (%s)\n", mark, task.Emoji, task.Title, task.ID)
		}

		if progress.Total > 0 && progress.Done == progress.Total {
			b.WriteString("  🎉 All done, great job!\n")
		}
	}

	_, err := io.WriteString(w, b.String())

	return err
}

// orDash substitutes a dash for unset times.
func orDash(value string) string {
	if value == "" {
		return "-"
	}

	return value
}
