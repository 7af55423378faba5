package kv

import (
	"context"
	"errors"
)

// Keys of the persisted ledger state.
const (
	KeyTransactions = "transactions"
	KeyBudgets      = "budgets"
	KeyTheme        = "theme"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Ports for persistence adapters.
type (
	// Store is a flat key-value store holding JSON documents.
	Store interface {
		// Get returns the value stored under key, or ErrNotFound.
		Get(ctx context.Context, key string) ([]byte, error)
		// Set stores value under key, replacing any previous value.
		Set(ctx context.Context, key string, value []byte) error
		// Clear removes every key.
		Clear(ctx context.Context) error
	}

	// Closer is implemented by stores holding external resources.
	Closer interface {
		Close() error
	}
)
