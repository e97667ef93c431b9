package routine

import "fmt"

// Roster is the ordered list of children. Order defines alarm precedence.
type Roster []Child

// Clone returns a deep copy so callers can hand out snapshots safely.
func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}

	cloned := make(Roster, len(r))
	for i := range r {
		cloned[i] = *r[i].Clone()
	}

	return cloned
}

// Find returns the child with the given ID, or nil.
func (r Roster) Find(childID string) *Child {
	for i := range r {
		if r[i].ID == childID {
			return &r[i]
		}
	}

	return nil
}

// Validate checks that child IDs are unique and every child is valid.
func (r Roster) Validate() error {
	seen := make(map[string]struct{}, len(r))

	for i := range r {
		if err := r[i].Validate(); err != nil {
			return err
		}

		if _, dup := seen[r[i].ID]; dup {
			return fmt.Errorf("child %s: %w", r[i].ID, ErrDuplicateID)
		}

		seen[r[i].ID] = struct{}{}
	}

	return nil
}

// ToggleTask flips the done flag of a task in place and returns the updated task.
func (r Roster) ToggleTask(childID, taskID string) (*Task, error) {
	child := r.Find(childID)
	if child == nil {
		return nil, fmt.Errorf("%s: %w", childID, ErrUnknownChild)
	}

	for i := range child.Tasks {
		if child.Tasks[i].ID != taskID {
			continue
		}

		child.Tasks[i].Done = !child.Tasks[i].Done
		task := child.Tasks[i]

		return &task, nil
	}

	return nil, fmt.Errorf("%s/%s: %w", childID, taskID, ErrUnknownTask)
}

// DefaultRoster is the roster seeded on first start.
func DefaultRoster() Roster {
	return Roster{
		{
			ID:         "maya",
			Name:       "Maya",
			Avatar:     "👧",
			WakeUpTime: "07:00",
			BusTime:    "07:45",
			Tasks: []Task{
				{ID: "brush", Title: "Brush teeth", Emoji: "🦷"},
				{ID: "dress", Title: "Get dressed", Emoji: "👕"},
				{ID: "breakfast", Title: "Eat breakfast", Emoji: "🥣"},
				{ID: "backpack", Title: "Pack backpack", Emoji: "🎒"},
			},
		},
		{
			ID:         "alex",
			Name:       "Alex",
			Avatar:     "👦",
			WakeUpTime: "07:15",
			BusTime:    "08:00",
			Tasks: []Task{
				{ID: "wash", Title: "Wash face", Emoji: "🧼"},
				{ID: "dress2", Title: "Get dressed", Emoji: "👕"},
				{ID: "breakfast2", Title: "Eat breakfast", Emoji: "🥞"},
				{ID: "shoes", Title: "Put on shoes", Emoji: "👟"},
			},
		},
	}
}
