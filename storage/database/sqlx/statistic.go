package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
)

const (
	insertEventQuery = `INSERT INTO statistics (id, type, data, user_id, created_at, updated_at)
VALUES (:id, :type, CAST(:data AS jsonb), :user_id, :created_at, :updated_at)`

	selectEventsByUserQuery = `SELECT id, type, data, user_id, created_at, updated_at
FROM statistics
WHERE user_id = $1
ORDER BY created_at DESC, id DESC`

	// one row per (type, key); visits have no key
	groupEventsByUserQuery = `SELECT type,
       CASE type
           WHEN 'visit' THEN NULL
           WHEN 'material' THEN data->>'material'
           ELSE data->>'code'
       END AS key,
       COUNT(*) AS count
FROM statistics
WHERE user_id = $1
GROUP BY 1, 2`

	countTouchedByUserQuery = `SELECT
    (SELECT COUNT(DISTINCT m.id)
     FROM statistics s
     JOIN materials m ON m.id::text = s.data->>'material'
     WHERE s.user_id = $1 AND s.type = 'material') AS materials,
    (SELECT COUNT(DISTINCT s.data->>'code')
     FROM statistics s
     WHERE s.user_id = $1 AND s.type = 'practice_completed'
       AND EXISTS (SELECT 1 FROM practices p WHERE p.code = s.data->>'code')) AS completed_practices`
)

type eventRow struct {
	ID        string    `db:"id"`
	Type      string    `db:"type"`
	Data      string    `db:"data"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type groupRow struct {
	Type  string      `db:"type"`
	Key   null.String `db:"key"`
	Count int         `db:"count"`
}

type statisticRepository struct {
	exec core.DBExecutor
}

var _ statistic.Repository = (*statisticRepository)(nil)

func NewStatisticRepository(exec core.DBExecutor) statistic.Repository {
	return &statisticRepository{exec: exec}
}

func (repo statisticRepository) CreateEvent(ctx context.Context, evt statistic.Event, exec ...core.DBExecutor) (statistic.Event, error) {
	data, err := marshalPayload(evt.Payload)
	if err != nil {
		return statistic.Event{}, err
	}
	row := eventRow{
		ID:        evt.ID,
		Type:      string(evt.Type),
		Data:      data,
		UserID:    evt.UserID,
		CreatedAt: evt.CreatedAt,
		UpdatedAt: evt.UpdatedAt,
	}
	if _, err = namedExec(ctx, getExec(repo.exec, exec), insertEventQuery, row); err != nil {
		return statistic.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo statisticRepository) QueryEventsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]statistic.Event, error) {
	var rows []eventRow
	if err := selectAll(ctx, getExec(repo.exec, exec), &rows, selectEventsByUserQuery, userID); err != nil {
		return nil, errors.Wrap(err, "selecting events")
	}

	events := make([]statistic.Event, 0, len(rows))
	for _, row := range rows {
		typ := statistic.EventType(row.Type)
		payload, err := statistic.DecodePayload(typ, []byte(row.Data))
		if err != nil {
			return nil, errors.Wrapf(err, "decoding event %s", row.ID)
		}
		events = append(events, statistic.Event{
			ID:        row.ID,
			Type:      typ,
			Payload:   payload,
			UserID:    row.UserID,
			CreatedAt: row.CreatedAt.UTC(),
			UpdatedAt: row.UpdatedAt.UTC(),
		})
	}
	return events, nil
}

func (repo statisticRepository) GroupEventsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]statistic.GroupRow, error) {
	var rows []groupRow
	if err := selectAll(ctx, getExec(repo.exec, exec), &rows, groupEventsByUserQuery, userID); err != nil {
		return nil, errors.Wrap(err, "grouping events")
	}

	groups := make([]statistic.GroupRow, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, statistic.GroupRow{
			Type:  statistic.EventType(row.Type),
			Key:   row.Key.String,
			Count: row.Count,
		})
	}
	return groups, nil
}

func (repo statisticRepository) CountTouchedByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (statistic.TouchedCounts, error) {
	var counts statistic.TouchedCounts
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, countTouchedByUserQuery, userID).
		Scan(&counts.Materials, &counts.CompletedPractices)
	if err != nil {
		return statistic.TouchedCounts{}, errors.Wrap(err, "counting touched catalog items")
	}
	return counts, nil
}

func marshalPayload(payload statistic.Payload) (string, error) {
	if payload == nil {
		return "{}", nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "encoding payload")
	}
	return string(data), nil
}
