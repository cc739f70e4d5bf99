package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	// EventResync is emitted by a feed after its transport reconnected.
	// Anything published while it was away is lost and must be re-fetched.
	EventResync EventType = "RESYNC"
)

// Event is one change pushed by the store.
type Event struct {
	ID          string            `json:"id"`
	Table       string            `json:"table"`
	Type        EventType         `json:"type"`
	Keys        map[string]string `json:"keys"`
	Record      json.RawMessage   `json:"record"`
	CommittedAt time.Time         `json:"committedAt"`
}

// Record is a row that can travel on the feed.
type Record interface {
	TableName() string
	FeedKeys() map[string]string
}

// Filter is a single equality predicate, e.g. receiver_id = X.
type Filter struct {
	Column string
	Value  string
}

func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

func (f Filter) String() string {
	return f.Column + "=eq." + f.Value
}

// NewEvent serializes rec into an event of the given type.
func NewEvent(typ EventType, rec Record) (Event, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s record: %w", rec.TableName(), err)
	}
	return Event{
		ID:          uuid.NewString(),
		Table:       rec.TableName(),
		Type:        typ,
		Keys:        rec.FeedKeys(),
		Record:      raw,
		CommittedAt: time.Now().UTC(),
	}, nil
}

// Matches reports whether the event belongs to the (table, filter) subscription.
func (e Event) Matches(table string, f Filter) bool {
	if e.Table != table {
		return false
	}
	v, ok := e.Keys[f.Column]
	return ok && v == f.Value
}

// Decode parses the event record into T. Unknown fields and records that fail
// their own Validate method are rejected.
func Decode[T any](e Event, table string) (T, error) {
	var out T
	if e.Table != table {
		return out, fmt.Errorf("decode: event for table %q, want %q", e.Table, table)
	}
	dec := json.NewDecoder(bytes.NewReader(e.Record))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s record: %w", table, err)
	}
	if v, ok := any(out).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return out, err
		}
	}
	return out, nil
}
