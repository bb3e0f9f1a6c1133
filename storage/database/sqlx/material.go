package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/material"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
)

const (
	materialColumns = `id, title, description, formula, example, created_at, updated_at`

	insertMaterialQuery = `INSERT INTO materials (` + materialColumns + `)
VALUES (:id, :title, :description, :formula, :example, :created_at, :updated_at)`

	updateMaterialQuery = `UPDATE materials
SET title = :title, description = :description, formula = :formula, example = :example, updated_at = :updated_at
WHERE id = :id`
)

type materialRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Formula     string    `db:"formula"`
	Example     string    `db:"example"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row materialRow) material() material.Material {
	return material.Material{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Formula:     row.Formula,
		Example:     row.Example,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func newMaterialRow(mat material.Material) materialRow {
	return materialRow{
		ID:          mat.ID,
		Title:       mat.Title,
		Description: mat.Description,
		Formula:     mat.Formula,
		Example:     mat.Example,
		CreatedAt:   mat.CreatedAt,
		UpdatedAt:   mat.UpdatedAt,
	}
}

type materialRepository struct {
	exec core.DBExecutor
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(exec core.DBExecutor) material.Repository {
	return &materialRepository{exec: exec}
}

func (repo materialRepository) CheckTitleUniqueness(ctx context.Context, title, excludedID string, exec ...core.DBExecutor) error {
	var exists bool
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM materials WHERE title = $1 AND id::text <> $2)`, title, excludedID).
		Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "checking material title uniqueness")
	}
	if exists {
		return material.ErrTitleExists
	}
	return nil
}

func (repo materialRepository) CreateMaterial(ctx context.Context, mat material.Material, exec ...core.DBExecutor) (material.Material, error) {
	if _, err := namedExec(ctx, getExec(repo.exec, exec), insertMaterialQuery, newMaterialRow(mat)); err != nil {
		if isUniqueViolation(err) {
			return material.Material{}, material.ErrTitleExists
		}
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return mat, nil
}

// orderBy turns the requested orderings into an ORDER BY clause, dropping unknown fields.
func orderBy(ordering []core.DBOrdering) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if material.OrderingFields[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	clauses = append(clauses, "created_at DESC", "id ASC")
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func (repo materialRepository) QueryMaterials(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]material.Material, error) {
	var rows []materialRow
	q := `SELECT ` + materialColumns + ` FROM materials` + orderBy(ordering)
	if err := selectAll(ctx, getExec(repo.exec, exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting materials")
	}

	mats := make([]material.Material, 0, len(rows))
	for _, row := range rows {
		mats = append(mats, row.material())
	}
	return mats, nil
}

func (repo materialRepository) GetMaterialByID(ctx context.Context, id string, exec ...core.DBExecutor) (material.Material, error) {
	var rows []materialRow
	q := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1`
	if err := selectAll(ctx, getExec(repo.exec, exec), &rows, q, id); err != nil {
		return material.Material{}, errors.Wrap(err, "selecting material")
	}
	if len(rows) == 0 {
		return material.Material{}, material.ErrNotFound
	}
	return rows[0].material(), nil
}

func (repo materialRepository) UpdateMaterial(ctx context.Context, mat material.Material, exec ...core.DBExecutor) (material.Material, error) {
	res, err := namedExec(ctx, getExec(repo.exec, exec), updateMaterialQuery, newMaterialRow(mat))
	if err != nil {
		if isUniqueViolation(err) {
			return material.Material{}, material.ErrTitleExists
		}
		return material.Material{}, errors.Wrap(err, "updating material")
	}
	if n, err := res.RowsAffected(); err != nil {
		return material.Material{}, errors.Wrap(err, "updating material")
	} else if n == 0 {
		return material.Material{}, material.ErrNotFound
	}
	return mat, nil
}

func (repo materialRepository) DeleteMaterial(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting material")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting material")
	}
	if n == 0 {
		return material.ErrNotFound
	}
	return nil
}

func (repo materialRepository) ListCatalogMaterials(ctx context.Context) ([]statistic.CatalogMaterial, error) {
	var rows []struct {
		ID    string `db:"id"`
		Title string `db:"title"`
	}
	if err := selectAll(ctx, repo.exec, &rows, `SELECT id, title FROM materials ORDER BY title`); err != nil {
		return nil, errors.Wrap(err, "selecting materials catalog")
	}

	catalog := make([]statistic.CatalogMaterial, 0, len(rows))
	for _, row := range rows {
		catalog = append(catalog, statistic.CatalogMaterial{ID: row.ID, Title: row.Title})
	}
	return catalog, nil
}

func (repo materialRepository) CountMaterials(ctx context.Context) (int, error) {
	count, err := countRows(ctx, repo.exec, `SELECT COUNT(*) FROM materials`)
	return count, errors.Wrap(err, "counting materials")
}
