// Package sla computes the advisory service-level countdown shown next to
// open high-priority tickets. Nothing here changes ticket state.
package sla

import (
	"fmt"
	"time"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
)

var budgets = map[domain.Priority]time.Duration{
	domain.PriorityCritical: time.Hour,
	domain.PriorityHigh:     3 * time.Hour,
	domain.PriorityMedium:   12 * time.Hour,
	domain.PriorityLow:      24 * time.Hour,
}

// Budget returns the time allowed for a ticket of the given priority.
func Budget(p domain.Priority) (time.Duration, bool) {
	d, ok := budgets[p]
	return d, ok
}

// Result is the remaining SLA time truncated to whole minutes.
type Result struct {
	Breached bool `json:"vencido"`
	Hours    int  `json:"horas"`
	Minutes  int  `json:"minutos"`
}

func (r Result) String() string {
	if r.Breached {
		return "SLA vencido"
	}
	return fmt.Sprintf("%dh %dm restantes", r.Hours, r.Minutes)
}

// Remaining computes the SLA state of a ticket created at createdAt. The
// deadline itself already counts as breached. Unknown priorities are
// reported as breached.
func Remaining(createdAt time.Time, priority domain.Priority, now time.Time) Result {
	budget, ok := budgets[priority]
	if !ok {
		return Result{Breached: true}
	}
	remaining := createdAt.Add(budget).Sub(now)
	if remaining <= 0 {
		return Result{Breached: true}
	}
	return Result{
		Hours:   int(remaining / time.Hour),
		Minutes: int((remaining % time.Hour) / time.Minute),
	}
}

// Applies reports whether a countdown is displayed for the ticket.
func Applies(t *domain.Ticket) bool {
	if t == nil || !t.IsOpen() {
		return false
	}
	return t.Priority == domain.PriorityCritical || t.Priority == domain.PriorityHigh
}
