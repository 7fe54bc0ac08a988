// Package badgersink implements a persistent audit.Sink backed by
// BadgerDB.
//
// Events are stored under time-ordered keys so that the range queries used
// by the audit endpoint translate to a single prefix-bounded iteration:
//
//	event/<unix-nano, 16 hex digits>/<event id>  ->  JSON-encoded event
//
// The database holds nothing but audit data, so crash recovery and
// compaction are Badger's concern alone.
package badgersink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/bucketfm/bucketfm/pkg/audit"
)

const keyPrefix = "event/"

// Sink persists audit events in a BadgerDB database.
type Sink struct {
	db *badger.DB
}

// Config contains the settings for the badger sink.
type Config struct {
	// Path is the database directory. Created if absent.
	Path string

	// InMemory keeps the database in memory; used by tests.
	InMemory bool
}

// New opens (or creates) the audit database.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("audit database path is required")
	}

	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database at %q: %w", cfg.Path, err)
	}

	return &Sink{db: db}, nil
}

// eventKey builds the time-ordered storage key for an event.
func eventKey(event audit.Event) []byte {
	return fmt.Appendf(nil, "%s%016x/%s", keyPrefix, event.Timestamp.UnixNano(), event.ID)
}

// Record persists one event.
func (s *Sink) Record(ctx context.Context, event audit.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event %s: %w", event.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(event), value)
	})
	if err != nil {
		return fmt.Errorf("failed to persist audit event %s: %w", event.ID, err)
	}

	return nil
}

// Query returns the events recorded in [from, to], oldest first.
func (s *Sink) Query(ctx context.Context, from, to time.Time) ([]audit.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []audit.Event

	start := fmt.Appendf(nil, "%s%016x/", keyPrefix, from.UnixNano())
	end := fmt.Sprintf("%s%016x/", keyPrefix, to.UnixNano()+1)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			if string(item.Key()) >= end {
				break
			}

			err := item.Value(func(value []byte) error {
				var event audit.Event
				if err := json.Unmarshal(value, &event); err != nil {
					return fmt.Errorf("corrupt audit record %s: %w", item.Key(), err)
				}

				events = append(events, event)

				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("audit query failed: %w", err)
	}

	return events, nil
}

// Close flushes and closes the database.
func (s *Sink) Close() error {
	return s.db.Close()
}
