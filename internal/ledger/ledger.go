// Package ledger owns the mutable finance state: the transaction list, the
// budget map and the display theme. Every change goes through Store.Apply,
// which persists the touched keys before committing.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"finboard/internal/core"
	"finboard/internal/kv"
	"finboard/internal/log"
	"finboard/internal/transfer"
)

var (
	ErrNotFound       = errors.New("transaction not found")
	ErrUnknownCommand = errors.New("unknown command")
)

const (
	keyTransactions = kv.KeyTransactions
	keyBudgets      = kv.KeyBudgets
	keyTheme        = kv.KeyTheme
	keyReset        = "*"
)

type state struct {
	transactions []core.Transaction
	budgets      core.BudgetMap
	theme        core.Theme
}

func defaultState() state {
	return state{
		transactions: []core.Transaction{},
		budgets:      core.DefaultBudgets(),
		theme:        core.ThemeDark,
	}
}

func (s state) clone() state {
	return state{
		transactions: append([]core.Transaction(nil), s.transactions...),
		budgets:      s.budgets.Clone(),
		theme:        s.theme,
	}
}

func (s state) indexOf(id string) int {
	for i, t := range s.transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Snapshot is a consistent copy of the ledger at one revision.
type Snapshot struct {
	Transactions []core.Transaction
	Budgets      core.BudgetMap
	Theme        core.Theme
	Revision     uint64
}

// Store serializes access to the ledger state and writes through a kv.Store.
type Store struct {
	mu       sync.RWMutex
	kv       kv.Store
	logger   *log.Logger
	state    state
	revision uint64
}

func New(store kv.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{
		kv:     store,
		logger: logger.WithComponent(log.ComponentLedger),
		state:  defaultState(),
	}
}

// Load reads the persisted state. A missing key, a read failure or corrupt
// JSON falls back to that key's default; failures are logged, not returned.
func (s *Store) Load(ctx context.Context) {
	next := defaultState()

	var list []core.Transaction
	if s.read(ctx, keyTransactions, &list) && list != nil {
		// Stored data may predate ID assignment.
		next.transactions = transfer.Merge(nil, list)
	}

	var budgets core.BudgetMap
	if s.read(ctx, keyBudgets, &budgets) && budgets != nil {
		next.budgets = budgets
	}

	var theme core.Theme
	if s.read(ctx, keyTheme, &theme) {
		if err := theme.Validate(); err == nil {
			next.theme = theme
		} else {
			s.logger.WarnContext(ctx, "Stored theme invalid, using default", log.FieldError, err)
		}
	}

	s.mu.Lock()
	s.state = next
	s.revision++
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldCount, len(next.transactions),
		log.FieldRevision, s.Revision())
}

func (s *Store) read(ctx context.Context, key string, dst any) bool {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read stored value, using default",
			log.FieldKey, key, log.FieldError, err)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.WarnContext(ctx, "Stored value is not valid JSON, using default",
			log.FieldKey, key, log.FieldError, err)
		return false
	}
	return true
}

// Apply validates and runs cmd against a copy of the state, persists the
// keys it touched and only then commits. On any error the state is unchanged.
func (s *Store) Apply(ctx context.Context, cmd Command) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	keys, affected, id, err := mutate(&next, cmd)
	if err != nil {
		return Outcome{}, err
	}
	if len(keys) == 0 {
		return Outcome{Revision: s.revision}, nil
	}

	if err := s.persist(ctx, next, keys); err != nil {
		log.LogError(ctx, s.logger, "Failed to persist ledger", err, log.OpPersist,
			log.NewFields().WithOperation(cmd.Name()))
		return Outcome{}, err
	}

	s.state = next
	s.revision++

	s.logger.InfoContext(ctx, "Command applied",
		log.FieldCommand, cmd.Name(),
		log.FieldCount, affected,
		log.FieldRevision, s.revision)

	return Outcome{Revision: s.revision, Affected: affected, ID: id}, nil
}

// persist writes keys from next. When a write fails, keys already written
// are rewritten from the committed state so storage matches memory again;
// a failed rollback is logged.
func (s *Store) persist(ctx context.Context, next state, keys []string) error {
	for i, key := range keys {
		if err := s.write(ctx, next, key); err != nil {
			for _, done := range keys[:i] {
				if done == keyReset {
					continue
				}
				if rerr := s.write(ctx, s.state, done); rerr != nil {
					log.LogError(ctx, s.logger, "Failed to roll back ledger key", rerr, log.OpPersist,
						log.NewFields().WithOperation(done))
				}
			}
			return err
		}
	}
	return nil
}

func (s *Store) write(ctx context.Context, st state, key string) error {
	var value any
	switch key {
	case keyReset:
		if err := s.kv.Clear(ctx); err != nil {
			return fmt.Errorf("persist reset: %w", err)
		}
		return nil
	case keyTransactions:
		value = st.transactions
	case keyBudgets:
		value = st.budgets
	case keyTheme:
		value = st.theme
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.state.clone()
	return Snapshot{
		Transactions: c.transactions,
		Budgets:      c.budgets,
		Theme:        c.theme,
		Revision:     s.revision,
	}
}

// Revision increases with every committed change.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Find returns the transaction with the given ID.
func (s *Store) Find(id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.state.indexOf(id); i >= 0 {
		return s.state.transactions[i], nil
	}
	return core.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Export returns the export document of the current state.
func (s *Store) Export(now time.Time) transfer.Document {
	snap := s.Snapshot()
	return transfer.NewDocument(snap.Transactions, snap.Budgets, now)
}
