package material

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dewinurmalitasari/geoviz-server/core"
)

// Ordering fields accepted by Repository.QueryMaterials; anything else is ignored.
var OrderingFields = map[string]bool{"title": true, "created_at": true, "updated_at": true}

type Material struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Formula     string    `json:"formula"`
	Example     string    `json:"example"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC
}

// NewMaterial contains information needed to create a new Material.
type NewMaterial struct {
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Description string `json:"description" validate:"required,notblank"`
	Formula     string `json:"formula" validate:"required,notblank"`
	Example     string `json:"example" validate:"required,notblank"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	return validate.Struct(nm)
}

// UpdateMaterial defines what information may be provided to modify an existing Material.
// Empty fields are left untouched.
type UpdateMaterial struct {
	Title       string `json:"title" validate:"omitempty,notblank,max=255"`
	Description string `json:"description" validate:"omitempty,notblank"`
	Formula     string `json:"formula" validate:"omitempty,notblank"`
	Example     string `json:"example" validate:"omitempty,notblank"`
}

func (um *UpdateMaterial) Validate(validate *validator.Validate) error {
	um.Title = core.CleanString(um.Title)
	return validate.Struct(um)
}

func (um UpdateMaterial) apply(mat Material) Material {
	if um.Title != "" {
		mat.Title = um.Title
	}
	if um.Description != "" {
		mat.Description = um.Description
	}
	if um.Formula != "" {
		mat.Formula = um.Formula
	}
	if um.Example != "" {
		mat.Example = um.Example
	}
	return mat
}
