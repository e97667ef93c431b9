package v1

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
)

// Wire field names. The roster and child names match the persisted roster document.
const (
	fieldChildren    = "children"
	fieldLastUpdated = "lastUpdated"

	fieldID         = "id"
	fieldName       = "name"
	fieldAvatar     = "avatar"
	fieldWakeUpTime = "wakeUpTime"
	fieldBusTime    = "busTime"
	fieldTasks      = "tasks"
	fieldTitle      = "title"
	fieldEmoji      = "emoji"
	fieldDone       = "done"

	fieldActive      = "active"
	fieldType        = "type"
	fieldChild       = "child"
	fieldChildID     = "childId"
	fieldTaskID      = "taskId"
	fieldTriggeredAt = "triggeredAt"
)

// ErrMalformedMessage is returned when a Struct does not have the expected layout.
var ErrMalformedMessage = errors.New("malformed message")

// TaskToStruct encodes a task.
func TaskToStruct(task *routine.Task) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldID:    structpb.NewStringValue(task.ID),
		fieldTitle: structpb.NewStringValue(task.Title),
		fieldEmoji: structpb.NewStringValue(task.Emoji),
		fieldDone:  structpb.NewBoolValue(task.Done),
	}}
}

// ChildToStruct encodes a child with its tasks.
func ChildToStruct(child *routine.Child) *structpb.Struct {
	tasks := make([]*structpb.Value, 0, len(child.Tasks))
	for i := range child.Tasks {
		tasks = append(tasks, structpb.NewStructValue(TaskToStruct(&child.Tasks[i])))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldID:         structpb.NewStringValue(child.ID),
		fieldName:       structpb.NewStringValue(child.Name),
		fieldAvatar:     structpb.NewStringValue(child.Avatar),
		fieldWakeUpTime: structpb.NewStringValue(child.WakeUpTime),
		fieldBusTime:    structpb.NewStringValue(child.BusTime),
		fieldTasks:      structpb.NewListValue(&structpb.ListValue{Values: tasks}),
	}}
}

// ChildFromStruct decodes a child. Missing string fields decode as empty.
func ChildFromStruct(s *structpb.Struct) (*routine.Child, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: child is missing", ErrMalformedMessage)
	}

	fields := s.GetFields()

	child := &routine.Child{
		ID:         fields[fieldID].GetStringValue(),
		Name:       fields[fieldName].GetStringValue(),
		Avatar:     fields[fieldAvatar].GetStringValue(),
		WakeUpTime: fields[fieldWakeUpTime].GetStringValue(),
		BusTime:    fields[fieldBusTime].GetStringValue(),
	}

	for i, value := range fields[fieldTasks].GetListValue().GetValues() {
		task := value.GetStructValue()
		if task == nil {
			return nil, fmt.Errorf("%w: child %q task %d is not an object", ErrMalformedMessage, child.ID, i)
		}

		taskFields := task.GetFields()

		child.Tasks = append(child.Tasks, routine.Task{
			ID:    taskFields[fieldID].GetStringValue(),
			Title: taskFields[fieldTitle].GetStringValue(),
			Emoji: taskFields[fieldEmoji].GetStringValue(),
			Done:  taskFields[fieldDone].GetBoolValue(),
		})
	}

	return child, nil
}

// RosterToStruct encodes the roster document. A zero lastUpdated is omitted.
func RosterToStruct(roster routine.Roster, lastUpdated time.Time) *structpb.Struct {
	children := make([]*structpb.Value, 0, len(roster))
	for i := range roster {
		children = append(children, structpb.NewStructValue(ChildToStruct(&roster[i])))
	}

	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldChildren: structpb.NewListValue(&structpb.ListValue{Values: children}),
	}}

	if !lastUpdated.IsZero() {
		s.Fields[fieldLastUpdated] = structpb.NewStringValue(lastUpdated.UTC().Format(time.RFC3339Nano))
	}

	return s
}

// RosterFromStruct decodes the roster document.
func RosterFromStruct(s *structpb.Struct) (routine.Roster, time.Time, error) {
	if s == nil {
		return nil, time.Time{}, fmt.Errorf("%w: roster is missing", ErrMalformedMessage)
	}

	fields := s.GetFields()

	var roster routine.Roster

	for i, value := range fields[fieldChildren].GetListValue().GetValues() {
		child, err := ChildFromStruct(value.GetStructValue())
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("child %d: %w", i, err)
		}

		roster = append(roster, *child)
	}

	lastUpdated, err := parseTime(fields[fieldLastUpdated])
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%s: %w", fieldLastUpdated, err)
	}

	return roster, lastUpdated, nil
}

// AlarmToStruct encodes the current alarm; nil encodes as inactive.
func AlarmToStruct(a *alarm.Alarm) *structpb.Struct {
	if a == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{
			fieldActive: structpb.NewBoolValue(false),
		}}
	}

	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldActive:      structpb.NewBoolValue(true),
		fieldType:        structpb.NewStringValue(string(a.Type)),
		fieldTriggeredAt: structpb.NewStringValue(a.TriggeredAt.Format(time.RFC3339Nano)),
	}}

	if a.Child != nil {
		s.Fields[fieldChild] = structpb.NewStructValue(ChildToStruct(a.Child))
	}

	return s
}

// AlarmFromStruct decodes an alarm; an inactive alarm decodes as nil.
func AlarmFromStruct(s *structpb.Struct) (*alarm.Alarm, error) {
	fields := s.GetFields()
	if !fields[fieldActive].GetBoolValue() {
		return nil, nil //nolint:nilnil // Inactive is a valid answer.
	}

	kind, err := alarm.ParseType(fields[fieldType].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	triggeredAt, err := parseTime(fields[fieldTriggeredAt])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fieldTriggeredAt, err)
	}

	a := &alarm.Alarm{Type: kind, TriggeredAt: triggeredAt}

	if child := fields[fieldChild].GetStructValue(); child != nil {
		if a.Child, err = ChildFromStruct(child); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// NewTriggerRequest builds a TriggerAlarm request.
func NewTriggerRequest(kind alarm.Type, childID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldType:    structpb.NewStringValue(string(kind)),
		fieldChildID: structpb.NewStringValue(childID),
	}}
}

// ParseTriggerRequest decodes a TriggerAlarm request.
func ParseTriggerRequest(s *structpb.Struct) (alarm.Type, string, error) {
	fields := s.GetFields()

	kind, err := alarm.ParseType(fields[fieldType].GetStringValue())
	if err != nil {
		return "", "", err
	}

	childID := fields[fieldChildID].GetStringValue()
	if childID == "" {
		return "", "", fmt.Errorf("%w: %s is required", ErrMalformedMessage, fieldChildID)
	}

	return kind, childID, nil
}

// NewToggleRequest builds a ToggleTask request.
func NewToggleRequest(childID, taskID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldChildID: structpb.NewStringValue(childID),
		fieldTaskID:  structpb.NewStringValue(taskID),
	}}
}

// ParseToggleRequest decodes a ToggleTask request.
func ParseToggleRequest(s *structpb.Struct) (string, string, error) {
	fields := s.GetFields()

	childID := fields[fieldChildID].GetStringValue()
	taskID := fields[fieldTaskID].GetStringValue()

	if childID == "" || taskID == "" {
		return "", "", fmt.Errorf("%w: %s and %s are required", ErrMalformedMessage, fieldChildID, fieldTaskID)
	}

	return childID, taskID, nil
}

// parseTime decodes an optional RFC 3339 string value.
func parseTime(value *structpb.Value) (time.Time, error) {
	raw := value.GetStringValue()
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	return t, nil
}
