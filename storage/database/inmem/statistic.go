package inmemdb

import (
	"context"
	"sort"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
)

type statisticRepository struct {
	db *DB
}

var _ statistic.Repository = (*statisticRepository)(nil)

func NewStatisticRepository(db *DB) statistic.Repository {
	return &statisticRepository{db: db}
}

func (repo *statisticRepository) CreateEvent(_ context.Context, evt statistic.Event, exec ...core.DBExecutor) (statistic.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.events = append(repo.db.events, evt)
	if t := txFrom(exec); t != nil {
		t.events = append(t.events, evt.ID)
	}
	return evt, nil
}

func (repo *statisticRepository) QueryEventsByUser(_ context.Context, userID string, _ ...core.DBExecutor) ([]statistic.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var events []statistic.Event
	for i := len(repo.db.events) - 1; i >= 0; i-- { // latest insert first among equal timestamps
		if evt := repo.db.events[i]; evt.UserID == userID {
			events = append(events, evt)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	return events, nil
}

func (repo *statisticRepository) GroupEventsByUser(_ context.Context, userID string, _ ...core.DBExecutor) ([]statistic.GroupRow, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	type groupKey struct {
		typ statistic.EventType
		key string
	}
	counts := make(map[groupKey]int)
	var order []groupKey
	for _, evt := range repo.db.events {
		if evt.UserID != userID || evt.Payload == nil {
			continue
		}
		k := groupKey{typ: evt.Type, key: evt.Payload.Key()}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}

	rows := make([]statistic.GroupRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, statistic.GroupRow{Type: k.typ, Key: k.key, Count: counts[k]})
	}
	return rows, nil
}

func (repo *statisticRepository) CountTouchedByUser(_ context.Context, userID string, _ ...core.DBExecutor) (statistic.TouchedCounts, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	codes := make(map[string]bool, len(repo.db.practices))
	for _, p := range repo.db.practices {
		codes[p.Code] = true
	}

	materials := make(map[string]bool)
	completed := make(map[string]bool)
	for _, evt := range repo.db.events {
		if evt.UserID != userID || evt.Payload == nil {
			continue
		}
		key := evt.Payload.Key()
		switch evt.Type {
		case statistic.TypeMaterial:
			if _, ok := repo.db.materials[key]; ok {
				materials[key] = true
			}
		case statistic.TypePracticeCompleted:
			if codes[key] {
				completed[key] = true
			}
		}
	}
	return statistic.TouchedCounts{Materials: len(materials), CompletedPractices: len(completed)}, nil
}
