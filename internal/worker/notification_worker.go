package worker

import (
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/events"
)

// StartEventSinks subscribes every sink to all ticket lifecycle events. Nil
// sinks are skipped so optional outputs can be passed unconditionally.
func StartEventSinks(dispatcher events.Dispatcher, sinks ...events.EventHandler) int {
	if dispatcher == nil {
		return 0
	}
	registered := 0
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		for _, eventType := range events.EventTypes {
			dispatcher.Subscribe(eventType, sink)
		}
		registered++
	}
	return registered
}
