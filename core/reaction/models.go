package reaction

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core"
)

// Kind is what a reaction is about.
type Kind string

const (
	KindMaterial Kind = "material"
	KindPractice Kind = "practice"
)

// Reactions a student can leave.
const (
	Happy    = "happy"
	Neutral  = "neutral"
	Sad      = "sad"
	Confused = "confused"
)

var (
	errMaterialIDRequired = errors.New("materialId is required")
	errMaterialIDInvalid  = errors.New("materialId is invalid")
	errMaterialMissing    = errors.New("material not found")
	errPracticeCodeNeeded = errors.New("practiceCode is required")
)

// Reaction is a student's feeling about one material or one practice. A student holds at most one
// reaction per target: reacting again replaces the previous one.
type Reaction struct {
	ID           string    `json:"id"`
	Reaction     string    `json:"reaction"`
	Type         Kind      `json:"type"`
	MaterialID   string    `json:"materialId,omitempty"`
	PracticeCode string    `json:"practiceCode,omitempty"`
	UserID       string    `json:"user"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

// Target returns the material ID or the practice code the reaction is about.
func (r Reaction) Target() string {
	if r.Type == KindMaterial {
		return r.MaterialID
	}
	return r.PracticeCode
}

// SetTarget stores key in the field matching the reaction's type.
func (r *Reaction) SetTarget(key string) {
	if r.Type == KindMaterial {
		r.MaterialID = key
	} else {
		r.PracticeCode = key
	}
}

// NewReaction contains the information a student posts.
type NewReaction struct {
	Reaction     string `json:"reaction" validate:"required,oneof=happy neutral sad confused"`
	Type         string `json:"type" validate:"required,oneof=material practice"`
	MaterialID   string `json:"materialId"`
	PracticeCode string `json:"practiceCode"`
}

// Validate checks the NewReaction and returns its kind and target key.
func (nr *NewReaction) Validate(validate *validator.Validate) (Kind, string, error) {
	nr.Reaction = core.CleanString(nr.Reaction, true /* lower */)
	nr.Type = core.CleanString(nr.Type, true /* lower */)
	nr.MaterialID = core.CleanString(nr.MaterialID, true /* lower */)
	nr.PracticeCode = core.CleanString(nr.PracticeCode)
	if err := validate.Struct(nr); err != nil {
		return "", "", err
	}

	if Kind(nr.Type) == KindMaterial {
		if nr.MaterialID == "" {
			return "", "", fieldError("materialId", errMaterialIDRequired)
		}
		if !core.IsValidID(nr.MaterialID) {
			return "", "", fieldError("materialId", errMaterialIDInvalid)
		}
		return KindMaterial, nr.MaterialID, nil
	}

	if nr.PracticeCode == "" {
		return "", "", fieldError("practiceCode", errPracticeCodeNeeded)
	}
	return KindPractice, nr.PracticeCode, nil
}

func fieldError(field string, err error) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}
