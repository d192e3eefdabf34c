package domain

import (
	"fmt"
	"strings"
	"time"
)

// Priority enumerates ticket urgency.
type Priority uint8

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityLow:      "Baja",
	PriorityMedium:   "Media",
	PriorityHigh:     "Alta",
	PriorityCritical: "Crítica",
}

// Priorities lists every valid priority from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// ParsePriority resolves the wire form of a priority. Matching ignores case,
// so "alta" and "ALTA" both yield PriorityHigh.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if matchLiteral(s, priorityNames[p]) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", uint8(p))
}

// Valid reports whether p is one of the declared priorities.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Status enumerates lifecycle states for tickets.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusInProgress
	StatusResolved
	StatusRejected
)

var statusNames = map[Status]string{
	StatusPending:    "Pendiente",
	StatusInProgress: "En_Proceso",
	StatusResolved:   "Resuelto",
	StatusRejected:   "Rechazado",
}

// Older clients submit the in-progress label with a space.
var statusAliases = map[string]Status{
	"En Proceso": StatusInProgress,
}

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

// ParseStatus resolves the wire form of a status.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if matchLiteral(s, statusNames[st]) {
			return st, nil
		}
	}
	for alias, st := range statusAliases {
		if matchLiteral(s, alias) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsTerminal is true for Resolved and Rejected.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusRejected
}

var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusResolved, StatusRejected},
	StatusInProgress: {StatusPending, StatusResolved, StatusRejected},
	StatusResolved:   {},
	StatusRejected:   {},
}

// CanTransitionTo reports whether a ticket in s may move to next.
// Staying in the same non-terminal state is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return !s.IsTerminal()
	}
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// TerminalStatusLiterals returns the stored form of the terminal statuses.
func TerminalStatusLiterals() []string {
	return []string{StatusResolved.String(), StatusRejected.String()}
}

// Ticket is an incident filed by a requester.
type Ticket struct {
	ID          int64
	Description string
	Priority    Priority
	Status      Status
	CreatedAt   time.Time
	ClosedAt    *time.Time
	CreatorID   int64
	AssigneeID  *int64

	// Populated by joined reads; nil when the referenced user no longer exists.
	Creator  *UserRef
	Assignee *UserRef
}

// IsOpen is true while the ticket has not reached a terminal status.
func (t *Ticket) IsOpen() bool {
	return !t.Status.IsTerminal()
}

func matchLiteral(input, literal string) bool {
	return strings.EqualFold(strings.TrimSpace(input), literal)
}
