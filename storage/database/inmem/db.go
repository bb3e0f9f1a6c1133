package inmemdb

import (
	"context"
	"sync"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/material"
	"github.com/dewinurmalitasari/geoviz-server/core/practice"
	"github.com/dewinurmalitasari/geoviz-server/core/reaction"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
)

// DB keeps every table in process memory. All repositories built on the same DB share its lock,
// so reports see a consistent snapshot of events and catalogs.
type DB struct {
	mutex     sync.RWMutex
	events    []statistic.Event
	materials map[string]material.Material
	practices []practice.Practice
	reactions map[reactionKey]reaction.Reaction
}

func NewDB() *DB {
	return &DB{
		materials: make(map[string]material.Material),
		reactions: make(map[reactionKey]reaction.Reaction),
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.events = nil
	db.materials = make(map[string]material.Material)
	db.practices = nil
	db.reactions = make(map[reactionKey]reaction.Reaction)
}

// tx records what was written through it so the writes can be undone.
// It never runs SQL: the embedded executor is nil and only satisfies core.DBExecutor.
type tx struct {
	core.DBExecutor
	events    []string
	practices []string
}

// txFrom returns the tx passed down to a repository, if any.
func txFrom(exec []core.DBExecutor) *tx {
	if len(exec) > 0 {
		if t, ok := exec[0].(*tx); ok {
			return t
		}
	}
	return nil
}

type txRunner struct {
	db *DB
}

var _ core.TxRunner = (*txRunner)(nil)

func NewTxRunner(db *DB) core.TxRunner {
	return &txRunner{db: db}
}

// RunInTx applies writes as they happen and removes them again if fn fails.
func (r *txRunner) RunInTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	t := new(tx)
	if err := fn(t); err != nil {
		r.db.rollback(t)
		return err
	}
	return nil
}

func (db *DB) rollback(t *tx) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.events = removeIDs(db.events, t.events, func(e statistic.Event) string { return e.ID })
	db.practices = removeIDs(db.practices, t.practices, func(p practice.Practice) string { return p.ID })
}

func removeIDs[T any](rows []T, ids []string, idOf func(T) string) []T {
	if len(ids) == 0 {
		return rows
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := rows[:0]
	for _, row := range rows {
		if !drop[idOf(row)] {
			kept = append(kept, row)
		}
	}
	return kept
}
