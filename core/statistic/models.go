package statistic

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// EventType tags an Event and selects the shape of its Payload.
type EventType string

// Event types
const (
	TypeVisit             EventType = "visit"
	TypeMaterial          EventType = "material"
	TypePracticeAttempt   EventType = "practice_attempt"
	TypePracticeCompleted EventType = "practice_completed"

	// accepted on input only; older clients post attempts as "practice"
	legacyTypePractice = "practice"
)

var AllTypes = []EventType{TypeVisit, TypeMaterial, TypePracticeAttempt, TypePracticeCompleted}

func (t EventType) IsValid() bool {
	for _, typ := range AllTypes {
		if t == typ {
			return true
		}
	}
	return false
}

// Payload is the type-specific body of an Event.
type Payload interface {
	Type() EventType
	// Key is the catalog key the event counts towards: a material ID, a practice code, or "" for visits.
	Key() string
}

type (
	VisitPayload struct{}

	MaterialPayload struct {
		MaterialRef string `json:"material"`
		Title       string `json:"title,omitempty"`
	}

	PracticeAttemptPayload struct {
		Code string `json:"code"`
	}

	PracticeCompletedPayload struct {
		Code        string `json:"code"`
		PracticeRef string `json:"practice"`
	}
)

var (
	_ Payload = VisitPayload{}
	_ Payload = MaterialPayload{}
	_ Payload = PracticeAttemptPayload{}
	_ Payload = PracticeCompletedPayload{}
)

func (VisitPayload) Type() EventType { return TypeVisit }
func (VisitPayload) Key() string     { return "" }

func (p MaterialPayload) Type() EventType { return TypeMaterial }
func (p MaterialPayload) Key() string     { return p.MaterialRef }

func (p PracticeAttemptPayload) Type() EventType { return TypePracticeAttempt }
func (p PracticeAttemptPayload) Key() string     { return p.Code }

func (p PracticeCompletedPayload) Type() EventType { return TypePracticeCompleted }
func (p PracticeCompletedPayload) Key() string     { return p.Code }

// DecodePayload turns stored payload bytes back into the variant selected by typ.
// Payloads are validated when written, so no validation happens here.
func DecodePayload(typ EventType, data []byte) (Payload, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}
	var (
		payload Payload
		err     error
	)
	switch typ {
	case TypeVisit:
		payload = VisitPayload{}
	case TypeMaterial:
		var p MaterialPayload
		err = json.Unmarshal(data, &p)
		payload = p
	case TypePracticeAttempt:
		var p PracticeAttemptPayload
		err = json.Unmarshal(data, &p)
		payload = p
	case TypePracticeCompleted:
		var p PracticeCompletedPayload
		err = json.Unmarshal(data, &p)
		payload = p
	default:
		return nil, errors.Errorf("unknown event type %q", typ)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s payload", typ)
	}
	return payload, nil
}

// Event is a single user interaction, appended once and never modified.
type Event struct {
	ID        string
	Type      EventType
	Payload   Payload
	UserID    string
	CreatedAt time.Time // UTC
	UpdatedAt time.Time // UTC
}

type eventJSON struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data"`
	UserID    string          `json:"user"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (evt Event) MarshalJSON() ([]byte, error) {
	var payload interface{} = evt.Payload
	if payload == nil {
		payload = struct{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventJSON{
		ID:        evt.ID,
		Type:      evt.Type,
		Data:      data,
		UserID:    evt.UserID,
		CreatedAt: evt.CreatedAt,
		UpdatedAt: evt.UpdatedAt,
	})
}

func (evt *Event) UnmarshalJSON(b []byte) error {
	var ej eventJSON
	if err := json.Unmarshal(b, &ej); err != nil {
		return err
	}
	payload, err := DecodePayload(ej.Type, ej.Data)
	if err != nil {
		return err
	}
	*evt = Event{
		ID:        ej.ID,
		Type:      ej.Type,
		Payload:   payload,
		UserID:    ej.UserID,
		CreatedAt: ej.CreatedAt,
		UpdatedAt: ej.UpdatedAt,
	}
	return nil
}

// PracticeCount holds the per-code counters of a Summary.
type PracticeCount struct {
	Attempted int `json:"attempted"`
	Completed int `json:"completed"`
}

// Summary is the full per-user report. Its maps carry one key per catalog item, touched or not.
type Summary struct {
	TotalVisits             int                      `json:"totalVisits"`
	TotalMaterialsAvailable int                      `json:"totalMaterialsAvailable"`
	TotalMaterialsAccessed  int                      `json:"totalMaterialsAccessed"`
	MaterialAccessCount     map[string]int           `json:"materialAccessCount"`
	TotalPracticesAvailable int                      `json:"totalPracticesAvailable"`
	TotalPracticeAttempts   int                      `json:"totalPracticeAttempts"`
	TotalPracticesCompleted int                      `json:"totalPracticesCompleted"`
	PracticeCount           map[string]PracticeCount `json:"practiceCount"`
	AccessedMaterialsCount  int                      `json:"accessedMaterialsCount"`
	CompletedPracticesCount int                      `json:"completedPracticesCount"`
	CompletionRateMaterials float64                  `json:"completionRateMaterials"`
	CompletionRatePractices float64                  `json:"completionRatePractices"`
}

// Progress is the scalar subset of a Summary.
type Progress struct {
	TotalMaterialsAvailable int     `json:"totalMaterialsAvailable"`
	AccessedMaterialsCount  int     `json:"accessedMaterialsCount"`
	TotalPracticesAvailable int     `json:"totalPracticesAvailable"`
	CompletedPracticesCount int     `json:"completedPracticesCount"`
	CompletionRateMaterials float64 `json:"completionRateMaterials"`
	CompletionRatePractices float64 `json:"completionRatePractices"`
}

// CatalogMaterial is the slice of a material the reports need.
type CatalogMaterial struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GroupRow is one (type, key) bucket of a user's events.
type GroupRow struct {
	Type  EventType
	Key   string
	Count int
}

// TouchedCounts holds how many catalog materials a user accessed and how many
// practice codes of the universe they completed.
type TouchedCounts struct {
	Materials          int
	CompletedPractices int
}
