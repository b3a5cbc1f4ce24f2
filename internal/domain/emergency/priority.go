package emergency

import (
	"errors"
	"strings"
)

// Priority ranks how urgently an alert should be surfaced to responders.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var ErrInvalidPriority = errors.New("invalid priority")

// ParsePriority normalizes (lowercases+trims) and validates a priority string.
func ParsePriority(s string) (Priority, error) {
	priority := Priority(strings.ToLower(strings.TrimSpace(s)))
	if priority.Valid() {
		return priority, nil
	}
	return "", ErrInvalidPriority
}

// PriorityOrDefault normalizes a reported priority, falling back to medium.
// Alerts are never rejected over an unrecognized priority.
func PriorityOrDefault(s string) Priority {
	if priority, err := ParsePriority(s); err == nil {
		return priority
	}
	return PriorityMedium
}

// Valid reports whether priority is one of the allowed constants.
func (priority Priority) Valid() bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Priority.
func (priority Priority) String() string {
	return string(priority)
}

// Rank maps the priority onto an ordinal for sorting; critical is highest.
func (priority Priority) Rank() int {
	switch priority {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

func (priority Priority) IsCritical() bool { return priority == PriorityCritical }
