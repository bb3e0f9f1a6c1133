package inmemdb

import (
	"context"
	"sort"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/practice"
)

type practiceRepository struct {
	db *DB
}

var _ practice.Repository = (*practiceRepository)(nil)

func NewPracticeRepository(db *DB) practice.Repository {
	return &practiceRepository{db: db}
}

func (repo *practiceRepository) CreatePractice(_ context.Context, p practice.Practice, exec ...core.DBExecutor) (practice.Practice, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.practices = append(repo.db.practices, p)
	if t := txFrom(exec); t != nil {
		t.practices = append(t.practices, p.ID)
	}
	return p, nil
}

func (repo *practiceRepository) QueryPracticesByUser(_ context.Context, userID string, _ ...core.DBExecutor) ([]practice.Practice, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var pracs []practice.Practice
	for i := len(repo.db.practices) - 1; i >= 0; i-- {
		if p := repo.db.practices[i]; p.UserID == userID {
			pracs = append(pracs, p)
		}
	}
	sort.SliceStable(pracs, func(i, j int) bool { return pracs[i].CreatedAt.After(pracs[j].CreatedAt) })
	return pracs, nil
}

func (repo *practiceRepository) codes() []string {
	seen := make(map[string]bool)
	codes := make([]string, 0)
	for _, p := range repo.db.practices {
		if !seen[p.Code] {
			seen[p.Code] = true
			codes = append(codes, p.Code)
		}
	}
	sort.Strings(codes)
	return codes
}

func (repo *practiceRepository) ListPracticeCodes(context.Context) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.codes(), nil
}

func (repo *practiceRepository) CountPracticeCodes(context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.codes()), nil
}
