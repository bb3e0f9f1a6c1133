package statistic

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewinurmalitasari/geoviz-server/core"
)

func newValidator() *validator.Validate {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func TestNewEvent_Validate(t *testing.T) {
	validate := newValidator()
	const matID = "0f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"

	tests := []struct {
		name        string
		body        string
		want        Payload
		wantMessage string
	}{
		{name: "visit", body: `{"type":"visit","data":{}}`, want: VisitPayload{}},
		{name: "visit with data", body: `{"type":"visit","data":{"page":"home"}}`, wantMessage: "visit data must be empty"},
		{
			name: "material", body: `{"type":"material","data":{"material":"` + matID + `","title":"Pythagoras"}}`,
			want: MaterialPayload{MaterialRef: matID, Title: "Pythagoras"},
		},
		{
			name: "material id normalised", body: `{"type":"material","data":{"material":"  0F8E7D6C-5B4A-4392-8170-6F5E4D3C2B1A "}}`,
			want: MaterialPayload{MaterialRef: matID},
		},
		{name: "material without id", body: `{"type":"material","data":{}}`, wantMessage: "material ID is required"},
		{name: "material with bad id", body: `{"type":"material","data":{"material":"abc"}}`, wantMessage: "material ID is invalid"},
		{name: "material id not a string", body: `{"type":"material","data":{"material":42}}`, wantMessage: "material ID is required"},
		{name: "practice attempt", body: `{"type":"practice_attempt","data":{"code":"P1"}}`, want: PracticeAttemptPayload{Code: "P1"}},
		{name: "legacy practice alias", body: `{"type":"practice","data":{"code":"P1"}}`, want: PracticeAttemptPayload{Code: "P1"}},
		{name: "practice without code", body: `{"type":"practice_attempt","data":{}}`, wantMessage: "practice code is required"},
		{name: "practice blank code", body: `{"type":"practice_attempt","data":{"code":"   "}}`, wantMessage: "practice code is required"},
		{
			name: "practice_completed is not client-trackable", body: `{"type":"practice_completed","data":{"code":"P1","practice":"x"}}`,
			wantMessage: "invalid statistic type",
		},
		{name: "unknown type", body: `{"type":"reaction","data":{}}`, wantMessage: "invalid statistic type"},
		{name: "missing data", body: `{"type":"visit"}`, wantMessage: "statistic data is required"},
		{name: "null data", body: `{"type":"visit","data":null}`, wantMessage: "statistic data is required"},
		{name: "data not an object", body: `{"type":"visit","data":[1]}`, wantMessage: "statistic data must be an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ne NewEvent
			require.NoError(t, json.Unmarshal([]byte(tt.body), &ne))

			payload, err := ne.Validate(validate)
			if tt.wantMessage != "" {
				require.Error(t, err)
				assert.True(t, core.IsValidationError(err), "want a ValidationError, got %T", err)
				assert.Equal(t, tt.wantMessage, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, payload)
		})
	}
}

func TestNewEvent_Validate_missingType(t *testing.T) {
	_, err := NewEvent{Data: json.RawMessage(`{}`)}.Validate(newValidator())

	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)
	assert.Equal(t, "type", vErrs[0].Field())
}
