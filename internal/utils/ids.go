package utils

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator issues record ids and human reference numbers.
type IDGenerator interface {
	// NewID returns an opaque unique id for wallets, bills and schedules.
	NewID() string
	// NewTransactionID returns a time-sortable id for ledger entries.
	NewTransactionID() string
	// NewReference returns PREFIX-YYYY-NNNN for the given instant.
	NewReference(prefix string, at time.Time) string
}

// RandomIDGenerator uses UUIDv4 ids, ULID transaction ids and random
// four digit reference suffixes.
type RandomIDGenerator struct{}

func (RandomIDGenerator) NewID() string {
	return uuid.NewString()
}

func (RandomIDGenerator) NewTransactionID() string {
	return ulid.Make().String()
}

func (RandomIDGenerator) NewReference(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, at.Year(), 1000+rand.IntN(9000))
}

// SequentialIDGenerator yields predictable ids ("id-1", "txn-1", "GOV-2025-0001").
type SequentialIDGenerator struct {
	mu   sync.Mutex
	ids  int
	txns int
	refs int
}

func (g *SequentialIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ids++
	return fmt.Sprintf("id-%d", g.ids)
}

func (g *SequentialIDGenerator) NewTransactionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.txns++
	return fmt.Sprintf("txn-%d", g.txns)
}

func (g *SequentialIDGenerator) NewReference(prefix string, at time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refs++
	return fmt.Sprintf("%s-%d-%04d", prefix, at.Year(), g.refs)
}
