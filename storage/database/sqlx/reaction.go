package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/reaction"
)

const (
	reactionColumns = `id, user_id, type, target, reaction, created_at, updated_at`

	// a repeated reaction to the same target only replaces the reaction and bumps updated_at
	upsertReactionQuery = `INSERT INTO reactions (` + reactionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, type, target) DO UPDATE
SET reaction = EXCLUDED.reaction, updated_at = EXCLUDED.updated_at
RETURNING ` + reactionColumns

	selectReactionsByUserQuery = `SELECT ` + reactionColumns + `
FROM reactions
WHERE user_id = $1
ORDER BY created_at ASC, id ASC`

	selectReactionQuery = `SELECT ` + reactionColumns + `
FROM reactions
WHERE user_id = $1 AND type = $2 AND target = $3`

	deleteReactionQuery = `DELETE FROM reactions WHERE user_id = $1 AND type = $2 AND target = $3`
)

type reactionRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Type      string    `db:"type"`
	Target    string    `db:"target"`
	Reaction  string    `db:"reaction"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row reactionRow) reaction() reaction.Reaction {
	r := reaction.Reaction{
		ID:        row.ID,
		Reaction:  row.Reaction,
		Type:      reaction.Kind(row.Type),
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	r.SetTarget(row.Target)
	return r
}

type reactionRepository struct {
	exec core.DBExecutor
}

var _ reaction.Repository = (*reactionRepository)(nil)

func NewReactionRepository(exec core.DBExecutor) reaction.Repository {
	return &reactionRepository{exec: exec}
}

func (repo reactionRepository) UpsertReaction(ctx context.Context, r reaction.Reaction, exec ...core.DBExecutor) (reaction.Reaction, error) {
	var rows []reactionRow
	err := selectAll(ctx, getExec(repo.exec, exec), &rows, upsertReactionQuery,
		r.ID, r.UserID, string(r.Type), r.Target(), r.Reaction, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return reaction.Reaction{}, errors.Wrap(err, "upserting reaction")
	}
	if len(rows) == 0 {
		return reaction.Reaction{}, errors.New("upserting reaction: no row returned")
	}
	return rows[0].reaction(), nil
}

func (repo reactionRepository) QueryReactionsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]reaction.Reaction, error) {
	var rows []reactionRow
	if err := selectAll(ctx, getExec(repo.exec, exec), &rows, selectReactionsByUserQuery, userID); err != nil {
		return nil, errors.Wrap(err, "selecting reactions")
	}

	reactions := make([]reaction.Reaction, 0, len(rows))
	for _, row := range rows {
		reactions = append(reactions, row.reaction())
	}
	return reactions, nil
}

func (repo reactionRepository) GetReaction(ctx context.Context, userID string, kind reaction.Kind, target string, exec ...core.DBExecutor) (reaction.Reaction, error) {
	var rows []reactionRow
	if err := selectAll(ctx, getExec(repo.exec, exec), &rows, selectReactionQuery, userID, string(kind), target); err != nil {
		return reaction.Reaction{}, errors.Wrap(err, "selecting reaction")
	}
	if len(rows) == 0 {
		return reaction.Reaction{}, reaction.ErrNotFound
	}
	return rows[0].reaction(), nil
}

func (repo reactionRepository) DeleteReaction(ctx context.Context, userID string, kind reaction.Kind, target string, exec ...core.DBExecutor) error {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, deleteReactionQuery, userID, string(kind), target)
	if err != nil {
		return errors.Wrap(err, "deleting reaction")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting reaction")
	}
	if n == 0 {
		return reaction.ErrNotFound
	}
	return nil
}
