package routine

import (
	"errors"
	"fmt"
)

// Task is a single checklist item of a child's morning.
type Task struct {
	// ID is unique within the owning child.
	ID string
	// Title is the human-readable task name.
	Title string
	// Emoji is the icon shown next to the title.
	Emoji string
	// Done reports whether the task has been checked off.
	Done bool
}

// Child is one member of the roster.
type Child struct {
	// ID is unique within the roster.
	ID string
	// Name is the display name.
	Name string
	// Avatar is an emoji or image reference.
	Avatar string
	// WakeUpTime is the "HH:MM" wake-up alarm time, empty when unset.
	WakeUpTime string
	// BusTime is the "HH:MM" bus departure time, empty when unset.
	BusTime string
	// Tasks are in presentation order.
	Tasks []Task
}

// Progress summarizes how far a child is through the task list.
type Progress struct {
	// Done is the number of completed tasks.
	Done int
	// Total is the number of tasks.
	Total int
}

// Percent returns completion in the 0..100 range; zero when there are no tasks.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}

	return float64(p.Done) * 100 / float64(p.Total)
}

var (
	// ErrEmptyID is returned for children or tasks without an identifier.
	ErrEmptyID = errors.New("id must be provided")
	// ErrDuplicateID is returned when identifiers collide in the same scope.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrUnknownChild is returned when a child ID is not in the roster.
	ErrUnknownChild = errors.New("unknown child")
	// ErrUnknownTask is returned when a task ID is not in the child's list.
	ErrUnknownTask = errors.New("unknown task")
)

// HasSchedule reports whether both wake-up and bus times are set.
// Children without both are never considered for alarms.
func (c *Child) HasSchedule() bool {
	return c.WakeUpTime != "" && c.BusTime != ""
}

// HasIncompleteTasks reports whether at least one task is not done.
func (c *Child) HasIncompleteTasks() bool {
	for i := range c.Tasks {
		if !c.Tasks[i].Done {
			return true
		}
	}

	return false
}

// Progress counts completed tasks.
func (c *Child) Progress() Progress {
	progress := Progress{Total: len(c.Tasks)}

	for i := range c.Tasks {
		if c.Tasks[i].Done {
			progress.Done++
		}
	}

	return progress
}

// Validate checks identifiers and time formats.
func (c *Child) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("child: %w", ErrEmptyID)
	}

	if c.WakeUpTime != "" {
		if _, _, err := ParseClock(c.WakeUpTime); err != nil {
			return fmt.Errorf("child %s wake-up time: %w", c.ID, err)
		}
	}

	if c.BusTime != "" {
		if _, _, err := ParseClock(c.BusTime); err != nil {
			return fmt.Errorf("child %s bus time: %w", c.ID, err)
		}
	}

	seen := make(map[string]struct{}, len(c.Tasks))

	for i := range c.Tasks {
		id := c.Tasks[i].ID
		if id == "" {
			return fmt.Errorf("child %s task #%d: %w", c.ID, i, ErrEmptyID)
		}

		if _, dup := seen[id]; dup {
			return fmt.Errorf("child %s task %s: %w", c.ID, id, ErrDuplicateID)
		}

		seen[id] = struct{}{}
	}

	return nil
}

// Clone returns a deep copy of the child.
func (c *Child) Clone() *Child {
	if c == nil {
		return nil
	}

	cloned := *c
	cloned.Tasks = append([]Task(nil), c.Tasks...)

	return &cloned
}
