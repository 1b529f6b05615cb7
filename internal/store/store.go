package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Row is one JSON document in a table. Rows must carry a string "id".
type Row = map[string]any

// Filter matches rows by field equality. Window filtering (liveness
// cutoffs) is done by callers after Select.
type Filter = map[string]any

// Event is one change notification for a subscribed table.
type Event struct {
	Table string
	Row   Row
}

// Unsubscribe tears down a subscription. Safe to call more than once.
type Unsubscribe func()

// Store is the shared row store contract. Writes are whole- or
// partial-document; the last write for a given field wins. Subscribe
// delivers at-most-once, order-preserving notifications of row changes.
type Store interface {
	// Upsert inserts or replaces the row identified by row["id"].
	Upsert(ctx context.Context, table string, row Row) error

	// Update applies patch to every row matching filter.
	Update(ctx context.Context, table string, filter Filter, patch Row) error

	// Select returns all rows matching filter.
	Select(ctx context.Context, table string, filter Filter) ([]Row, error)

	// Subscribe invokes fn for each change to rows matching filter until
	// unsubscribed or ctx is cancelled. Dropped notifications are not
	// redelivered.
	Subscribe(ctx context.Context, table string, filter Filter, fn func(Event)) (Unsubscribe, error)
}

// RowID extracts the string id of a row, or "".
func RowID(row Row) string {
	id, _ := row["id"].(string)
	return id
}

// matches reports whether a row satisfies an equality filter. Values are
// compared through their JSON string forms so numeric types survive
// decode round-trips.
func matches(row Row, filter Filter) bool {
	for key, want := range filter {
		got, ok := row[key]
		if !ok {
			return false
		}
		if stringify(got) != stringify(want) {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
