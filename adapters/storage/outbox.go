package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// KeyOutbox holds emails that could not be delivered
const KeyOutbox = "registrationEmails"

// DefaultOutboxLimit is how many entries are kept when no limit is set
const DefaultOutboxLimit = 10

// OutboxEntry is an undelivered email kept for manual sending
type OutboxEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	To        string          `json:"to"`
	Subject   string          `json:"subject"`
	Body      string          `json:"body"`
	HTML      string          `json:"html,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Outbox is the bounded log of undelivered emails in the persistent scope
type Outbox struct {
	store *FileStore
	limit int
	now   func() time.Time
}

// NewOutbox creates an outbox keeping the last limit entries
func NewOutbox(store *FileStore, limit int) *Outbox {
	if limit <= 0 {
		limit = DefaultOutboxLimit
	}
	return &Outbox{store: store, limit: limit, now: time.Now}
}

// Record appends an entry, dropping the oldest beyond the limit. ID and
// Timestamp are filled in when empty.
func (o *Outbox) Record(ctx context.Context, entry OutboxEntry) (OutboxEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = o.now().UTC()
	}

	entries, err := o.List(ctx)
	if err != nil {
		return entry, err
	}
	entries = append(entries, entry)
	if len(entries) > o.limit {
		entries = entries[len(entries)-o.limit:]
	}
	return entry, o.store.Set(ctx, ScopePersistent, KeyOutbox, entries)
}

// List returns the recorded entries, oldest first. A malformed log reads
// as empty.
func (o *Outbox) List(ctx context.Context) ([]OutboxEntry, error) {
	var entries []OutboxEntry
	ok, err := o.store.Get(ctx, ScopePersistent, KeyOutbox, &entries)
	if err != nil || !ok {
		return nil, err
	}
	return entries, nil
}

// Clear empties the outbox
func (o *Outbox) Clear(ctx context.Context) error {
	return o.store.Delete(ctx, ScopePersistent, KeyOutbox)
}
