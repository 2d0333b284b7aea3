package orderitems

import (
	"context"
	"log/slog"
)

type EventKind string

const (
	EventMaterialize  EventKind = "materialize"
	EventParseFailed  EventKind = "parse_failed"
	EventLegacyRef    EventKind = "legacy_ref"
	EventDropped      EventKind = "dropped"
	EventFieldDefault EventKind = "field_default"
	EventFieldFound   EventKind = "field_found"
)

// Event describes one decision the normalizer took. Index is the position in
// the raw sequence, or -1 for events about the items field as a whole.
type Event struct {
	Kind    EventKind
	OrderID string
	Index   int
	Field   string
	Detail  string
}

// Tracer receives normalizer events. It must not retain or mutate anything
// reachable from the order being normalized.
type Tracer func(Event)

// SlogTracer writes events as debug records.
func SlogTracer(logger *slog.Logger) Tracer {
	if logger == nil {
		return nil
	}
	return func(e Event) {
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		logger.Debug("order items",
			"event", string(e.Kind),
			"order_id", e.OrderID,
			"index", e.Index,
			"field", e.Field,
			"detail", e.Detail,
		)
	}
}
