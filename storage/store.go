package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("no value at path")
	ErrInvalidDocument = errors.New("document is not valid JSON")
)

type Update struct {
	Path  string
	Value []byte
}

// Store holds the node configuration as a JSON document of the form
// {"<section>": {"<option>": value}}, for example
// {"current": {"node.name": "Fred"}}.
type Store interface {
	// Load replaces the document with the flattened "<section>.<option>"
	// fields of a ConfigData message.
	Load(ctx context.Context, fields map[string]string) error

	Set(ctx context.Context, path string, value interface{}) error
	Get(ctx context.Context, path string) ([]byte, error)

	Restore(values []byte) error
	Backup() ([]byte, error)

	ListenToUpdates() <-chan *Update

	Close() error
}
