package inmemdb

import (
	"context"
	"sort"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/reaction"
)

// reactionKey is the unique (user, type, target) triple.
type reactionKey struct {
	userID string
	kind   reaction.Kind
	target string
}

type reactionRepository struct {
	db *DB
}

var _ reaction.Repository = (*reactionRepository)(nil)

func NewReactionRepository(db *DB) reaction.Repository {
	return &reactionRepository{db: db}
}

func (repo *reactionRepository) UpsertReaction(_ context.Context, r reaction.Reaction, _ ...core.DBExecutor) (reaction.Reaction, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := reactionKey{userID: r.UserID, kind: r.Type, target: r.Target()}
	if prev, ok := repo.db.reactions[key]; ok {
		r.ID = prev.ID
		r.CreatedAt = prev.CreatedAt
	}
	repo.db.reactions[key] = r
	return r, nil
}

func (repo *reactionRepository) QueryReactionsByUser(_ context.Context, userID string, _ ...core.DBExecutor) ([]reaction.Reaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var reactions []reaction.Reaction
	for key, r := range repo.db.reactions {
		if key.userID == userID {
			reactions = append(reactions, r)
		}
	}
	sort.Slice(reactions, func(i, j int) bool {
		if reactions[i].CreatedAt.Equal(reactions[j].CreatedAt) {
			return reactions[i].ID < reactions[j].ID
		}
		return reactions[i].CreatedAt.Before(reactions[j].CreatedAt)
	})
	return reactions, nil
}

func (repo *reactionRepository) GetReaction(_ context.Context, userID string, kind reaction.Kind, target string, _ ...core.DBExecutor) (reaction.Reaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.reactions[reactionKey{userID: userID, kind: kind, target: target}]; ok {
		return r, nil
	}
	return reaction.Reaction{}, reaction.ErrNotFound
}

func (repo *reactionRepository) DeleteReaction(_ context.Context, userID string, kind reaction.Kind, target string, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := reactionKey{userID: userID, kind: kind, target: target}
	if _, ok := repo.db.reactions[key]; !ok {
		return reaction.ErrNotFound
	}
	delete(repo.db.reactions, key)
	return nil
}
