package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/material"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
)

type materialRepository struct {
	db *DB
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) titleTaken(title, excludedID string) bool {
	for _, mat := range repo.db.materials {
		if mat.Title == title && mat.ID != excludedID {
			return true
		}
	}
	return false
}

func (repo *materialRepository) CheckTitleUniqueness(_ context.Context, title, excludedID string, _ ...core.DBExecutor) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if repo.titleTaken(title, excludedID) {
		return material.ErrTitleExists
	}
	return nil
}

func (repo *materialRepository) CreateMaterial(_ context.Context, mat material.Material, _ ...core.DBExecutor) (material.Material, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.titleTaken(mat.Title, mat.ID) {
		return material.Material{}, material.ErrTitleExists
	}
	repo.db.materials[mat.ID] = mat
	return mat, nil
}

func (repo *materialRepository) QueryMaterials(_ context.Context, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]material.Material, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	mats := make([]material.Material, 0, len(repo.db.materials))
	for _, mat := range repo.db.materials {
		mats = append(mats, mat)
	}

	ords := make([]core.DBOrdering, 0, len(ordering)+1)
	for _, ord := range ordering {
		if material.OrderingFields[ord.Field] {
			ords = append(ords, ord)
		}
	}
	ords = append(ords, core.DBOrdering{Field: "created_at"}, core.DBOrdering{Field: "id", Ascending: true})

	sort.SliceStable(mats, func(i, j int) bool {
		for _, ord := range ords {
			c := compareMaterials(mats[i], mats[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return mats, nil
}

func compareMaterials(a, b material.Material, field string) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return strings.Compare(a.ID, b.ID)
	}
}

func (repo *materialRepository) GetMaterialByID(_ context.Context, id string, _ ...core.DBExecutor) (material.Material, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if mat, ok := repo.db.materials[id]; ok {
		return mat, nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) UpdateMaterial(_ context.Context, mat material.Material, _ ...core.DBExecutor) (material.Material, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.materials[mat.ID]; !ok {
		return material.Material{}, material.ErrNotFound
	}
	if repo.titleTaken(mat.Title, mat.ID) {
		return material.Material{}, material.ErrTitleExists
	}
	repo.db.materials[mat.ID] = mat
	return mat, nil
}

func (repo *materialRepository) DeleteMaterial(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.materials[id]; !ok {
		return material.ErrNotFound
	}
	delete(repo.db.materials, id)
	return nil
}

func (repo *materialRepository) ListCatalogMaterials(context.Context) ([]statistic.CatalogMaterial, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	catalog := make([]statistic.CatalogMaterial, 0, len(repo.db.materials))
	for _, mat := range repo.db.materials {
		catalog = append(catalog, statistic.CatalogMaterial{ID: mat.ID, Title: mat.Title})
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Title < catalog[j].Title })
	return catalog, nil
}

func (repo *materialRepository) CountMaterials(context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.materials), nil
}
