// Package memory is a process-local ledger store for development runs and
// tests. It mirrors the postgres adapter's contracts: writes made through a Tx
// are undone on Rollback, and ForUpdate reads hold a row lock until the Tx
// ends.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"asset-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store holds every table of the ledger.
type Store struct {
	mu sync.RWMutex

	wallets        map[uuid.UUID]*domain.Wallet
	transactions   map[uuid.UUID]*domain.WalletTransaction
	txOrder        []uuid.UUID
	idempotency    map[string]uuid.UUID
	pointsEvents   map[string]*domain.PointsEvent
	pointsAccounts map[uuid.UUID]*domain.PointsAccount // by user id
	pointsTxns     map[uuid.UUID]*domain.PointsTransaction
	pointsOrder    []uuid.UUID
	pointsKeys     map[string]uuid.UUID
	gasRefills     map[string]*domain.GasRefill // by provider ref
	virtualAccts   map[uuid.UUID]*domain.VirtualAccount
	railTransfers  map[uuid.UUID]*domain.RailTransfer // by job id

	rowLocks sync.Map // string -> *sync.Mutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		wallets:        make(map[uuid.UUID]*domain.Wallet),
		transactions:   make(map[uuid.UUID]*domain.WalletTransaction),
		idempotency:    make(map[string]uuid.UUID),
		pointsEvents:   make(map[string]*domain.PointsEvent),
		pointsAccounts: make(map[uuid.UUID]*domain.PointsAccount),
		pointsTxns:     make(map[uuid.UUID]*domain.PointsTransaction),
		pointsKeys:     make(map[string]uuid.UUID),
		gasRefills:     make(map[string]*domain.GasRefill),
		virtualAccts:   make(map[uuid.UUID]*domain.VirtualAccount),
		railTransfers:  make(map[uuid.UUID]*domain.RailTransfer),
	}
}

func (s *Store) rowLock(key string) *sync.Mutex {
	m, _ := s.rowLocks.LoadOrStore(key, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// Begin implements ports.DBTransactor.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}
	return &Tx{store: s, held: make(map[string]*sync.Mutex)}, nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "memory" }

// Ping implements ports.HealthChecker.
func (s *Store) Ping(context.Context) error { return nil }

// PutPointsEvent registers or replaces a points event definition.
func (s *Store) PutPointsEvent(e domain.PointsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.pointsEvents[e.Code] = &e
}

// PutVirtualAccount registers or replaces a virtual account.
func (s *Store) PutVirtualAccount(v domain.VirtualAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.virtualAccts[v.ID] = &v
}

// Tx is the memory store's pgx.Tx. Only Commit and Rollback are meaningful;
// the embedded nil pgx.Tx panics if SQL methods are called.
type Tx struct {
	pgx.Tx

	store *Store
	mu    sync.Mutex
	undo  []func()
	held  map[string]*sync.Mutex
	done  bool
}

func (t *Tx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

// Commit keeps the writes and releases row locks.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.undo = nil
	t.releaseLocked()
	return nil
}

// Rollback reverts the writes in reverse order. Rolling back a finished Tx
// returns pgx.ErrTxClosed as pgx does.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true

	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()
	t.undo = nil
	t.releaseLocked()
	return nil
}

func (t *Tx) releaseLocked() {
	for key, m := range t.held {
		m.Unlock()
		delete(t.held, key)
	}
}

// lock takes the row lock for key unless this Tx already holds it.
func (t *Tx) lock(ctx context.Context, key string) error {
	t.mu.Lock()
	if _, ok := t.held[key]; ok {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	m := t.store.rowLock(key)
	for !m.TryLock() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("lock row %s: %w", key, ctx.Err())
		default:
		}
		waitBriefly()
	}

	t.mu.Lock()
	t.held[key] = m
	t.mu.Unlock()
	return nil
}

// record registers an undo step. Callers hold store.mu.
func (t *Tx) record(fn func()) {
	t.mu.Lock()
	t.undo = append(t.undo, fn)
	t.mu.Unlock()
}

// asTx returns the memory Tx behind tx, or nil for writes outside a transaction.
func asTx(tx pgx.Tx) *Tx {
	if mt, ok := tx.(*Tx); ok {
		return mt
	}
	return nil
}

func waitBriefly() { time.Sleep(time.Millisecond) }

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
