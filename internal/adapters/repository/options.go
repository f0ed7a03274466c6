package repository

import "github.com/shinoda11/opsboard/internal/domain/model"

// Option applies a configuration option to the EventLog.
type Option func(*EventLog)

// WithSeedEvents preloads the log, bypassing validation. Intended for
// tests and local development seeding.
func WithSeedEvents(events []model.Event) Option {
	return func(l *EventLog) {
		for _, e := range events {
			l.events[e.StoreID] = append(l.events[e.StoreID], e)
			l.total++
		}
	}
}
