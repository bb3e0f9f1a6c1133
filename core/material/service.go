package material

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
)

var (
	// errors
	ErrNotFound    = errors.New("material not found")
	ErrTitleExists = errors.New("material with this title already exists")
)

type (
	Repository interface {
		statistic.MaterialCatalog

		// CheckTitleUniqueness returns ErrTitleExists if another material than excludedID holds title.
		CheckTitleUniqueness(ctx context.Context, title, excludedID string, exec ...core.DBExecutor) error
		CreateMaterial(ctx context.Context, mat Material, exec ...core.DBExecutor) (Material, error)
		QueryMaterials(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Material, error)
		GetMaterialByID(ctx context.Context, id string, exec ...core.DBExecutor) (Material, error)
		UpdateMaterial(ctx context.Context, mat Material, exec ...core.DBExecutor) (Material, error)
		DeleteMaterial(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nm NewMaterial) (Material, error)
		Query(ctx context.Context, ordering []core.DBOrdering) ([]Material, error)
		GetByID(ctx context.Context, id string) (Material, error)
		Update(ctx context.Context, id string, um UpdateMaterial) (Material, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo        Repository
		invalidator statistic.CatalogInvalidator
		logger      core.Logger
		validate    *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	invalidator statistic.CatalogInvalidator,
	logger core.Logger,
	validate *validator.Validate,
) Service {
	if invalidator == nil {
		invalidator = statistic.NoopInvalidator{}
	}
	return &service{repo: repo, invalidator: invalidator, logger: logger, validate: validate}
}

// catalogChanged drops cached catalogs. The write already happened, so a failure is only logged.
func (svc *service) catalogChanged(ctx context.Context) {
	if err := svc.invalidator.InvalidateCatalog(ctx); err != nil {
		svc.logger.Warn("invalidating materials catalog", errors.Wrap(err, "materials catalog"))
	}
}

func (svc *service) Create(ctx context.Context, nm NewMaterial) (Material, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Material{}, err
	}
	if err := svc.repo.CheckTitleUniqueness(ctx, nm.Title, ""); err != nil {
		return Material{}, err
	}

	now := time.Now().UTC()
	mat, err := svc.repo.CreateMaterial(ctx, Material{
		ID:          core.NewID(),
		Title:       nm.Title,
		Description: nm.Description,
		Formula:     nm.Formula,
		Example:     nm.Example,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Material{}, errors.Wrap(err, "creating material")
	}
	svc.catalogChanged(ctx)
	return mat, nil
}

func (svc *service) Query(ctx context.Context, ordering []core.DBOrdering) ([]Material, error) {
	mats, err := svc.repo.QueryMaterials(ctx, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying materials")
	}
	if mats == nil {
		mats = []Material{}
	}
	return mats, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Material, error) {
	if !core.IsValidID(id) {
		return Material{}, ErrNotFound
	}
	return svc.repo.GetMaterialByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, um UpdateMaterial) (Material, error) {
	mat, err := svc.GetByID(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if err = um.Validate(svc.validate); err != nil {
		return Material{}, err
	}
	if um.Title != "" && um.Title != mat.Title {
		if err = svc.repo.CheckTitleUniqueness(ctx, um.Title, mat.ID); err != nil {
			return Material{}, err
		}
	}

	mat = um.apply(mat)
	mat.UpdatedAt = time.Now().UTC()
	if mat, err = svc.repo.UpdateMaterial(ctx, mat); err != nil {
		return Material{}, errors.Wrap(err, "updating material")
	}
	svc.catalogChanged(ctx)
	return mat, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	if !core.IsValidID(id) {
		return ErrNotFound
	}
	if err := svc.repo.DeleteMaterial(ctx, id); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return ErrNotFound
		}
		return errors.Wrap(err, "deleting material")
	}
	svc.catalogChanged(ctx)
	return nil
}
