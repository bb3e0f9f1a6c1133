package practice_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/practice"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
	"github.com/dewinurmalitasari/geoviz-server/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// failingEvents fails every event write.
type failingEvents struct {
	statistic.Repository
}

func (failingEvents) CreateEvent(context.Context, statistic.Event, ...core.DBExecutor) (statistic.Event, error) {
	return statistic.Event{}, errors.New("disk full")
}

func newValidator() *validator.Validate {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func intPtr(i int) *int { return &i }

func TestService_Submit(t *testing.T) {
	db := inmemdb.NewDB()
	events := inmemdb.NewStatisticRepository(db)
	repo := inmemdb.NewPracticeRepository(db)
	svc := practice.NewService(inmemdb.NewTxRunner(db), repo, events, nil, nopLogger{}, newValidator())
	ctx := context.Background()
	u := core.NewID()

	prac, err := svc.Submit(ctx, u, practice.NewPractice{
		Code:    " P1 ",
		Score:   &practice.NewScore{Correct: intPtr(3), Total: intPtr(5)},
		Content: json.RawMessage(`{"answers":["a","b"]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "P1", prac.Code)
	assert.Equal(t, practice.Score{Correct: 3, Total: 5}, prac.Score)
	assert.Equal(t, u, prac.UserID)

	evts, err := events.QueryEventsByUser(ctx, u)
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, statistic.TypePracticeCompleted, evts[0].Type)
	assert.Equal(t, statistic.PracticeCompletedPayload{Code: "P1", PracticeRef: prac.ID}, evts[0].Payload)

	codes, err := repo.ListPracticeCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, codes)

	pracs, err := svc.QueryByUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, []practice.Practice{prac}, pracs)
}

func TestService_Submit_validation(t *testing.T) {
	db := inmemdb.NewDB()
	svc := practice.NewService(
		inmemdb.NewTxRunner(db), inmemdb.NewPracticeRepository(db), inmemdb.NewStatisticRepository(db),
		nil, nopLogger{}, newValidator(),
	)
	ctx := context.Background()
	u := core.NewID()

	tests := []struct {
		name string
		np   practice.NewPractice
	}{
		{name: "no code", np: practice.NewPractice{Score: &practice.NewScore{Correct: intPtr(1), Total: intPtr(1)}}},
		{name: "no score", np: practice.NewPractice{Code: "P1"}},
		{name: "missing total", np: practice.NewPractice{Code: "P1", Score: &practice.NewScore{Correct: intPtr(1)}}},
		{name: "negative correct", np: practice.NewPractice{Code: "P1", Score: &practice.NewScore{Correct: intPtr(-1), Total: intPtr(1)}}},
		{name: "negative total", np: practice.NewPractice{Code: "P1", Score: &practice.NewScore{Correct: intPtr(0), Total: intPtr(-2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, u, tt.np)
			var vErrs validator.ValidationErrors
			assert.ErrorAs(t, err, &vErrs)
		})
	}

	_, err := svc.Submit(ctx, u, practice.NewPractice{
		Code: "P1", Score: &practice.NewScore{Correct: intPtr(1), Total: intPtr(1)}, Content: json.RawMessage(`[1]`),
	})
	assert.True(t, core.IsValidationError(err))

	_, err = svc.Submit(ctx, "nope", practice.NewPractice{Code: "P1"})
	assert.Equal(t, practice.ErrInvalidID, err)
}

func TestService_Submit_rollsBack(t *testing.T) {
	db := inmemdb.NewDB()
	repo := inmemdb.NewPracticeRepository(db)
	svc := practice.NewService(inmemdb.NewTxRunner(db), repo, failingEvents{}, nil, nopLogger{}, newValidator())
	ctx := context.Background()
	u := core.NewID()

	_, err := svc.Submit(ctx, u, practice.NewPractice{Code: "P1", Score: &practice.NewScore{Correct: intPtr(1), Total: intPtr(1)}})
	require.Error(t, err)

	pracs, err := svc.QueryByUser(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, pracs)
	n, err := repo.CountPracticeCodes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_QueryByUser_invalidID(t *testing.T) {
	db := inmemdb.NewDB()
	svc := practice.NewService(
		inmemdb.NewTxRunner(db), inmemdb.NewPracticeRepository(db), inmemdb.NewStatisticRepository(db),
		nil, nopLogger{}, newValidator(),
	)
	_, err := svc.QueryByUser(context.Background(), "42")
	assert.Equal(t, practice.ErrInvalidID, err)
}
