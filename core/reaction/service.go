package reaction

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/material"
)

var (
	// ErrInvalidID is returned when a user ID is not a well-formed identifier.
	ErrInvalidID = errors.New("invalid user ID")
	// ErrInvalidMaterialID is returned when a material ID in a lookup is not a well-formed identifier.
	ErrInvalidMaterialID = errors.New("invalid material ID")
	ErrNotFound          = errors.New("reaction not found")
)

type (
	Repository interface {
		// UpsertReaction stores r, replacing the user's previous reaction to the same target.
		// The stored row keeps its original ID and creation time.
		UpsertReaction(ctx context.Context, r Reaction, exec ...core.DBExecutor) (Reaction, error)
		// QueryReactionsByUser returns the user's reactions, oldest first.
		QueryReactionsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Reaction, error)
		GetReaction(ctx context.Context, userID string, kind Kind, key string, exec ...core.DBExecutor) (Reaction, error)
		DeleteReaction(ctx context.Context, userID string, kind Kind, key string, exec ...core.DBExecutor) error
	}

	// MaterialFinder is the part of the materials store reactions need.
	MaterialFinder interface {
		GetMaterialByID(ctx context.Context, id string, exec ...core.DBExecutor) (material.Material, error)
	}

	Service interface {
		React(ctx context.Context, userID string, nr NewReaction) (Reaction, error)
		QueryByUser(ctx context.Context, userID string) ([]Reaction, error)
		Get(ctx context.Context, userID string, kind Kind, key string) (Reaction, error)
		Delete(ctx context.Context, userID string, kind Kind, key string) error
	}

	service struct {
		repo      Repository
		materials MaterialFinder
		validate  *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, materials MaterialFinder, validate *validator.Validate) Service {
	return &service{repo: repo, materials: materials, validate: validate}
}

func (svc *service) React(ctx context.Context, userID string, nr NewReaction) (Reaction, error) {
	if !core.IsValidID(userID) {
		return Reaction{}, ErrInvalidID
	}
	kind, key, err := nr.Validate(svc.validate)
	if err != nil {
		return Reaction{}, err
	}

	if kind == KindMaterial {
		if _, err = svc.materials.GetMaterialByID(ctx, key); err != nil {
			if errors.Cause(err) == material.ErrNotFound {
				return Reaction{}, fieldError("materialId", errMaterialMissing)
			}
			return Reaction{}, errors.Wrap(err, "getting material")
		}
	}

	now := time.Now().UTC()
	r := Reaction{
		ID:        core.NewID(),
		Reaction:  nr.Reaction,
		Type:      kind,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.SetTarget(key)

	r, err = svc.repo.UpsertReaction(ctx, r)
	return r, errors.Wrap(err, "upserting reaction")
}

func (svc *service) QueryByUser(ctx context.Context, userID string) ([]Reaction, error) {
	if !core.IsValidID(userID) {
		return nil, ErrInvalidID
	}
	reactions, err := svc.repo.QueryReactionsByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying reactions")
	}
	if reactions == nil {
		reactions = []Reaction{}
	}
	return reactions, nil
}

// checkTarget normalizes key, rejecting malformed material IDs.
func checkTarget(kind Kind, key string) (string, error) {
	if kind == KindMaterial {
		key = core.CleanString(key, true /* lower */)
		if !core.IsValidID(key) {
			return "", ErrInvalidMaterialID
		}
		return key, nil
	}
	key = core.CleanString(key)
	if key == "" {
		return "", ErrNotFound
	}
	return key, nil
}

func (svc *service) Get(ctx context.Context, userID string, kind Kind, key string) (Reaction, error) {
	if !core.IsValidID(userID) {
		return Reaction{}, ErrInvalidID
	}
	key, err := checkTarget(kind, key)
	if err != nil {
		return Reaction{}, err
	}
	return svc.repo.GetReaction(ctx, userID, kind, key)
}

func (svc *service) Delete(ctx context.Context, userID string, kind Kind, key string) error {
	if !core.IsValidID(userID) {
		return ErrInvalidID
	}
	key, err := checkTarget(kind, key)
	if err != nil {
		return err
	}
	return svc.repo.DeleteReaction(ctx, userID, kind, key)
}
