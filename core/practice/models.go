package practice

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core"
)

var errContentNotObject = errors.New("content must be an object")

type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Practice is a submitted exercise. Its code joins the practice-code universe.
type Practice struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Score     Score           `json:"score"`
	Content   json.RawMessage `json:"content,omitempty"`
	UserID    string          `json:"user"`
	CreatedAt time.Time       `json:"createdAt"` // UTC
	UpdatedAt time.Time       `json:"updatedAt"` // UTC
}

type NewScore struct {
	Correct *int `json:"correct" validate:"required,gte=0"`
	Total   *int `json:"total" validate:"required,gte=0"`
}

// NewPractice contains the information a student submits.
type NewPractice struct {
	Code    string          `json:"code" validate:"required,notblank"`
	Score   *NewScore       `json:"score" validate:"required"`
	Content json.RawMessage `json:"content"`
}

func (np *NewPractice) Validate(validate *validator.Validate) error {
	np.Code = core.CleanString(np.Code)
	if err := validate.Struct(np); err != nil {
		return err
	}

	content := bytes.TrimSpace(np.Content)
	if len(content) == 0 || bytes.Equal(content, []byte("null")) {
		np.Content = nil
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(content, &obj); err != nil {
		return core.NewValidationError(
			errContentNotObject,
			core.FieldError{Field: "content", Error: errContentNotObject.Error()},
		)
	}
	np.Content = content
	return nil
}
