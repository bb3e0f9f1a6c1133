package statistic

import (
	"bytes"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core"
)

var (
	errInvalidType        = errors.New("invalid statistic type")
	errDataRequired       = errors.New("statistic data is required")
	errDataNotObject      = errors.New("statistic data must be an object")
	errVisitDataNotEmpty  = errors.New("visit data must be empty")
	errMaterialIDRequired = errors.New("material ID is required")
	errMaterialIDInvalid  = errors.New("material ID is invalid")
	errPracticeCodeNeeded = errors.New("practice code is required")
)

// NewEvent contains the information a client posts to track an Event.
// practice_completed can't be posted; it is recorded when a practice is submitted.
type NewEvent struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data"`
}

// Validate checks the NewEvent and returns the Payload it describes.
func (ne NewEvent) Validate(validate *validator.Validate) (Payload, error) {
	ne.Type = core.CleanString(ne.Type, true /* lower */)
	if err := validate.Struct(ne); err != nil {
		return nil, err
	}

	typ := EventType(ne.Type)
	if ne.Type == legacyTypePractice {
		typ = TypePracticeAttempt
	}
	if !typ.IsValid() || typ == TypePracticeCompleted {
		return nil, fieldError("type", errInvalidType)
	}

	data := bytes.TrimSpace(ne.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fieldError("data", errDataRequired)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fieldError("data", errDataNotObject)
	}

	switch typ {
	case TypeVisit:
		if len(fields) > 0 {
			return nil, fieldError("data", errVisitDataNotEmpty)
		}
		return VisitPayload{}, nil

	case TypeMaterial:
		var p MaterialPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fieldError("data.material", errMaterialIDRequired)
		}
		p.MaterialRef = core.CleanString(p.MaterialRef, true /* lower */)
		p.Title = core.CleanString(p.Title)
		if p.MaterialRef == "" {
			return nil, fieldError("data.material", errMaterialIDRequired)
		}
		if !core.IsValidID(p.MaterialRef) {
			return nil, fieldError("data.material", errMaterialIDInvalid)
		}
		return p, nil

	default: // TypePracticeAttempt
		var p PracticeAttemptPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fieldError("data.code", errPracticeCodeNeeded)
		}
		p.Code = core.CleanString(p.Code)
		if p.Code == "" {
			return nil, fieldError("data.code", errPracticeCodeNeeded)
		}
		return p, nil
	}
}

func fieldError(field string, err error) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}
