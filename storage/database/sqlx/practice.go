package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/practice"
)

const (
	insertPracticeQuery = `INSERT INTO practices (id, code, correct, total, content, user_id, created_at, updated_at)
VALUES (:id, :code, :correct, :total, CAST(:content AS jsonb), :user_id, :created_at, :updated_at)`

	selectPracticesByUserQuery = `SELECT id, code, correct, total, content, user_id, created_at, updated_at
FROM practices
WHERE user_id = $1
ORDER BY created_at DESC, id DESC`
)

type practiceRow struct {
	ID        string      `db:"id"`
	Code      string      `db:"code"`
	Correct   int         `db:"correct"`
	Total     int         `db:"total"`
	Content   null.String `db:"content"`
	UserID    string      `db:"user_id"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

type practiceRepository struct {
	exec core.DBExecutor
}

var _ practice.Repository = (*practiceRepository)(nil)

func NewPracticeRepository(exec core.DBExecutor) practice.Repository {
	return &practiceRepository{exec: exec}
}

func (repo practiceRepository) CreatePractice(ctx context.Context, p practice.Practice, exec ...core.DBExecutor) (practice.Practice, error) {
	row := practiceRow{
		ID:        p.ID,
		Code:      p.Code,
		Correct:   p.Score.Correct,
		Total:     p.Score.Total,
		Content:   null.NewString(string(p.Content), len(p.Content) > 0),
		UserID:    p.UserID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if _, err := namedExec(ctx, getExec(repo.exec, exec), insertPracticeQuery, row); err != nil {
		return practice.Practice{}, errors.Wrap(err, "inserting practice")
	}
	return p, nil
}

func (repo practiceRepository) QueryPracticesByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]practice.Practice, error) {
	var rows []practiceRow
	if err := selectAll(ctx, getExec(repo.exec, exec), &rows, selectPracticesByUserQuery, userID); err != nil {
		return nil, errors.Wrap(err, "selecting practices")
	}

	pracs := make([]practice.Practice, 0, len(rows))
	for _, row := range rows {
		var content json.RawMessage
		if row.Content.Valid {
			content = json.RawMessage(row.Content.String)
		}
		pracs = append(pracs, practice.Practice{
			ID:        row.ID,
			Code:      row.Code,
			Score:     practice.Score{Correct: row.Correct, Total: row.Total},
			Content:   content,
			UserID:    row.UserID,
			CreatedAt: row.CreatedAt.UTC(),
			UpdatedAt: row.UpdatedAt.UTC(),
		})
	}
	return pracs, nil
}

func (repo practiceRepository) ListPracticeCodes(ctx context.Context) ([]string, error) {
	var rows []struct {
		Code string `db:"code"`
	}
	if err := selectAll(ctx, repo.exec, &rows, `SELECT DISTINCT code FROM practices ORDER BY code`); err != nil {
		return nil, errors.Wrap(err, "selecting practice codes")
	}

	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		codes = append(codes, row.Code)
	}
	return codes, nil
}

func (repo practiceRepository) CountPracticeCodes(ctx context.Context) (int, error) {
	count, err := countRows(ctx, repo.exec, `SELECT COUNT(DISTINCT code) FROM practices`)
	return count, errors.Wrap(err, "counting practice codes")
}
