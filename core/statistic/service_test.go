package statistic_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/material"
	"github.com/dewinurmalitasari/geoviz-server/core/practice"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
	"github.com/dewinurmalitasari/geoviz-server/storage/database/inmem"
)

type fixture struct {
	db       *inmemdb.DB
	svc      statistic.Service
	events   statistic.Repository
	matRepo  material.Repository
	pracRepo practice.Repository
}

func newFixture() fixture {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	db := inmemdb.NewDB()
	f := fixture{
		db:       db,
		events:   inmemdb.NewStatisticRepository(db),
		matRepo:  inmemdb.NewMaterialRepository(db),
		pracRepo: inmemdb.NewPracticeRepository(db),
	}
	f.svc = statistic.NewService(f.events, f.matRepo, f.pracRepo, validate)
	return f
}

func (f fixture) addMaterial(t *testing.T, title string) material.Material {
	t.Helper()
	now := time.Now().UTC()
	mat, err := f.matRepo.CreateMaterial(context.Background(), material.Material{
		ID: core.NewID(), Title: title, Description: "d", Formula: "f", Example: "e", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return mat
}

func (f fixture) addPractice(t *testing.T, userID, code string) {
	t.Helper()
	now := time.Now().UTC()
	p, err := f.pracRepo.CreatePractice(context.Background(), practice.Practice{
		ID: core.NewID(), Code: code, Score: practice.Score{Correct: 1, Total: 1}, UserID: userID, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	_, err = f.events.CreateEvent(context.Background(), statistic.Event{
		ID: core.NewID(), Type: statistic.TypePracticeCompleted,
		Payload: statistic.PracticeCompletedPayload{Code: code, PracticeRef: p.ID},
		UserID:  userID, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
}

func (f fixture) track(t *testing.T, userID string, typ statistic.EventType, data string) {
	t.Helper()
	_, err := f.svc.Track(context.Background(), userID, statistic.NewEvent{Type: string(typ), Data: json.RawMessage(data)})
	require.NoError(t, err)
}

func TestService_Summary_counting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, other := core.NewID(), core.NewID()

	matA := f.addMaterial(t, "A")
	f.addMaterial(t, "B")
	f.addPractice(t, other, "P2") // P2 enters the universe through someone else

	f.track(t, u, statistic.TypeVisit, `{}`)
	f.track(t, u, statistic.TypeVisit, `{}`)
	f.track(t, u, statistic.TypeVisit, `{}`)
	f.track(t, u, statistic.TypeMaterial, `{"material":"`+matA.ID+`"}`)
	f.track(t, u, statistic.TypeMaterial, `{"material":"`+matA.ID+`"}`)
	f.track(t, u, statistic.TypePracticeAttempt, `{"code":"P1"}`)
	f.addPractice(t, u, "P1")

	sum, err := f.svc.Summary(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, statistic.Summary{
		TotalVisits:             3,
		TotalMaterialsAvailable: 2,
		TotalMaterialsAccessed:  2,
		MaterialAccessCount:     map[string]int{"A": 2, "B": 0},
		TotalPracticesAvailable: 2,
		TotalPracticeAttempts:   1,
		TotalPracticesCompleted: 1,
		PracticeCount: map[string]statistic.PracticeCount{
			"P1": {Attempted: 1, Completed: 1},
			"P2": {},
		},
		AccessedMaterialsCount:  1,
		CompletedPracticesCount: 1,
		CompletionRateMaterials: 50,
		CompletionRatePractices: 50,
	}, sum)

	prog, err := f.svc.Progress(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, statistic.Progress{
		TotalMaterialsAvailable: 2,
		AccessedMaterialsCount:  1,
		TotalPracticesAvailable: 2,
		CompletedPracticesCount: 1,
		CompletionRateMaterials: 50,
		CompletionRatePractices: 50,
	}, prog)
}

func TestService_Summary_emptyCatalogs(t *testing.T) {
	f := newFixture()
	u := core.NewID()
	f.track(t, u, statistic.TypeVisit, `{}`)
	f.track(t, u, statistic.TypeMaterial, `{"material":"`+core.NewID()+`"}`)

	sum, err := f.svc.Summary(context.Background(), u)
	require.NoError(t, err)
	assert.Zero(t, sum.CompletionRateMaterials)
	assert.Zero(t, sum.CompletionRatePractices)
	assert.Empty(t, sum.MaterialAccessCount)
	assert.Empty(t, sum.PracticeCount)

	prog, err := f.svc.Progress(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, statistic.Progress{}, prog)
}

func TestService_Summary_isolation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, other := core.NewID(), core.NewID()
	mat := f.addMaterial(t, "A")
	f.track(t, u, statistic.TypeVisit, `{}`)

	before, err := f.svc.Summary(ctx, u)
	require.NoError(t, err)

	f.track(t, other, statistic.TypeVisit, `{}`)
	f.track(t, other, statistic.TypeMaterial, `{"material":"`+mat.ID+`"}`)
	f.track(t, other, statistic.TypePracticeAttempt, `{"code":"P1"}`)

	after, err := f.svc.Summary(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_Summary_idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := core.NewID()
	mat := f.addMaterial(t, "A")
	f.track(t, u, statistic.TypeMaterial, `{"material":"`+mat.ID+`"}`)
	f.addPractice(t, u, "P1")

	first, err := f.svc.Summary(ctx, u)
	require.NoError(t, err)
	second, err := f.svc.Summary(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestService_ProgressMatchesSummary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := core.NewID()
	mats := []material.Material{f.addMaterial(t, "A"), f.addMaterial(t, "B"), f.addMaterial(t, "C")}
	f.addPractice(t, core.NewID(), "P3")
	f.track(t, u, statistic.TypeMaterial, `{"material":"`+mats[0].ID+`"}`)
	f.track(t, u, statistic.TypeMaterial, `{"material":"`+mats[2].ID+`"}`)
	f.track(t, u, statistic.TypeMaterial, `{"material":"`+core.NewID()+`"}`) // not in the catalog
	f.addPractice(t, u, "P1")
	f.addPractice(t, u, "P1")

	sum, err := f.svc.Summary(ctx, u)
	require.NoError(t, err)
	prog, err := f.svc.Progress(ctx, u)
	require.NoError(t, err)

	assert.Equal(t, sum.TotalMaterialsAvailable, prog.TotalMaterialsAvailable)
	assert.Equal(t, sum.AccessedMaterialsCount, prog.AccessedMaterialsCount)
	assert.Equal(t, sum.TotalPracticesAvailable, prog.TotalPracticesAvailable)
	assert.Equal(t, sum.CompletedPracticesCount, prog.CompletedPracticesCount)
	assert.Equal(t, sum.CompletionRateMaterials, prog.CompletionRateMaterials)
	assert.Equal(t, sum.CompletionRatePractices, prog.CompletionRatePractices)
	assert.Equal(t, 2, prog.AccessedMaterialsCount)
	assert.Equal(t, 1, prog.CompletedPracticesCount)
}

func TestService_invalidID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Summary(ctx, "not-an-id")
	assert.Equal(t, statistic.ErrInvalidID, err)
	_, err = f.svc.Progress(ctx, "")
	assert.Equal(t, statistic.ErrInvalidID, err)
	_, err = f.svc.QueryByUser(ctx, "123")
	assert.Equal(t, statistic.ErrInvalidID, err)
	_, err = f.svc.Track(ctx, "123", statistic.NewEvent{Type: "visit", Data: json.RawMessage(`{}`)})
	assert.Equal(t, statistic.ErrInvalidID, err)
}

func TestService_unknownUserGetsZeroReport(t *testing.T) {
	f := newFixture()
	f.addMaterial(t, "A")

	sum, err := f.svc.Summary(context.Background(), core.NewID())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 0}, sum.MaterialAccessCount)
	assert.Zero(t, sum.TotalVisits)
}

func TestService_Track_rejectedEventsAreNotStored(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := core.NewID()

	for _, ne := range []statistic.NewEvent{
		{Type: "visit", Data: json.RawMessage(`{"x":1}`)},
		{Type: "material", Data: json.RawMessage(`{}`)},
		{Type: "practice_attempt", Data: json.RawMessage(`{}`)},
		{Type: "practice_completed", Data: json.RawMessage(`{"code":"P1"}`)},
		{Type: "bogus", Data: json.RawMessage(`{}`)},
	} {
		_, err := f.svc.Track(ctx, u, ne)
		assert.Error(t, err, ne.Type)
	}

	events, err := f.svc.QueryByUser(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotNil(t, events)
}

func TestService_QueryByUser_newestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := core.NewID()
	f.track(t, u, statistic.TypeVisit, `{}`)
	time.Sleep(time.Millisecond)
	f.track(t, u, statistic.TypePracticeAttempt, `{"code":"P1"}`)

	events, err := f.svc.QueryByUser(ctx, u)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, statistic.TypePracticeAttempt, events[0].Type)
	assert.Equal(t, statistic.TypeVisit, events[1].Type)
	assert.Equal(t, u, events[0].UserID)
}

type failingCatalog struct {
	statistic.MaterialCatalog
	err error
}

func (c failingCatalog) ListCatalogMaterials(context.Context) ([]statistic.CatalogMaterial, error) {
	return nil, c.err
}

func (c failingCatalog) CountMaterials(context.Context) (int, error) {
	return 0, c.err
}

// blockingCatalog waits for its context to be cancelled.
type blockingCatalog struct {
	statistic.PracticeCatalog
	cancelled *int32
}

func (c blockingCatalog) ListPracticeCodes(ctx context.Context) ([]string, error) {
	<-ctx.Done()
	atomic.StoreInt32(c.cancelled, 1)
	return nil, ctx.Err()
}

func (c blockingCatalog) CountPracticeCodes(ctx context.Context) (int, error) {
	<-ctx.Done()
	atomic.StoreInt32(c.cancelled, 1)
	return 0, ctx.Err()
}

func TestService_Summary_firstFailureCancelsSiblings(t *testing.T) {
	f := newFixture()
	boom := errors.New("catalog unavailable")
	var cancelled int32
	svc := statistic.NewService(f.events, failingCatalog{err: boom}, blockingCatalog{cancelled: &cancelled}, validator.New())

	_, err := svc.Summary(context.Background(), core.NewID())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))

	cancelled = 0
	_, err = svc.Progress(context.Background(), core.NewID())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))
}

func TestService_Summary_callerCancellation(t *testing.T) {
	f := newFixture()
	var cancelled int32
	svc := statistic.NewService(f.events, f.matRepo, blockingCatalog{cancelled: &cancelled}, validator.New())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := svc.Summary(ctx, core.NewID())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
