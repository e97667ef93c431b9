package routine

import (
	"fmt"
	"time"
)

// busLeftAfter is how late the bus may be before it counts as gone.
const busLeftAfter = 30 * time.Minute

// BusCountdown describes the time left until the child's bus on now's day.
// It returns an empty string when the bus time is unset or malformed.
func BusCountdown(child *Child, now time.Time) string {
	if child == nil || child.BusTime == "" {
		return ""
	}

	busAt, err := ClockOn(now, child.BusTime)
	if err != nil {
		return ""
	}

	diff := busAt.Sub(now)

	switch {
	case diff <= -busLeftAfter:
		return "Bus has left"
	case diff <= 0:
		return "Bus time!"
	}

	totalSeconds := int(diff / time.Second)
	hours := totalSeconds / 3600
	minutes := totalSeconds / 60 % 60
	seconds := totalSeconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("Bus in %dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("Bus in %dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("Bus in %ds", seconds)
	}
}
