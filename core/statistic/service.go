package statistic

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dewinurmalitasari/geoviz-server/core"
)

// ErrInvalidID is returned when a user ID is not a well-formed identifier.
var ErrInvalidID = errors.New("invalid user ID")

const tracerName = "github.com/dewinurmalitasari/geoviz-server/core/statistic"

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		// QueryEventsByUser returns the user's events, newest first.
		QueryEventsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Event, error)
		// GroupEventsByUser counts the user's events per (type, key).
		GroupEventsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]GroupRow, error)
		// CountTouchedByUser counts the distinct catalog materials the user accessed and the distinct
		// codes of the practice universe the user completed.
		CountTouchedByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (TouchedCounts, error)
	}

	MaterialCatalog interface {
		ListCatalogMaterials(ctx context.Context) ([]CatalogMaterial, error)
		CountMaterials(ctx context.Context) (int, error)
	}

	// PracticeCatalog exposes the practice-code universe: every distinct code ever submitted.
	PracticeCatalog interface {
		ListPracticeCodes(ctx context.Context) ([]string, error)
		CountPracticeCodes(ctx context.Context) (int, error)
	}

	Service interface {
		Track(ctx context.Context, userID string, ne NewEvent) (Event, error)
		QueryByUser(ctx context.Context, userID string) ([]Event, error)
		Summary(ctx context.Context, userID string) (Summary, error)
		Progress(ctx context.Context, userID string) (Progress, error)
	}

	service struct {
		repo      Repository
		materials MaterialCatalog
		practices PracticeCatalog
		validate  *validator.Validate
		tracer    trace.Tracer
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, materials MaterialCatalog, practices PracticeCatalog, validate *validator.Validate) Service {
	return &service{
		repo:      repo,
		materials: materials,
		practices: practices,
		validate:  validate,
		tracer:    otel.Tracer(tracerName),
	}
}

func (svc *service) Track(ctx context.Context, userID string, ne NewEvent) (Event, error) {
	if !core.IsValidID(userID) {
		return Event{}, ErrInvalidID
	}
	payload, err := ne.Validate(svc.validate)
	if err != nil {
		return Event{}, err
	}

	now := time.Now().UTC()
	evt, err := svc.repo.CreateEvent(ctx, Event{
		ID:        core.NewID(),
		Type:      payload.Type(),
		Payload:   payload,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return evt, errors.Wrap(err, "creating event")
}

func (svc *service) QueryByUser(ctx context.Context, userID string) ([]Event, error) {
	if !core.IsValidID(userID) {
		return nil, ErrInvalidID
	}
	events, err := svc.repo.QueryEventsByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

// Summary computes the user's full report. The catalogs and the user's grouped events are
// fetched concurrently; the first failure cancels the other fetches.
func (svc *service) Summary(ctx context.Context, userID string) (Summary, error) {
	if !core.IsValidID(userID) {
		return Summary{}, ErrInvalidID
	}
	ctx, span := svc.tracer.Start(ctx, "statistic.Summary", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	var (
		catalog []CatalogMaterial
		codes   []string
		rows    []GroupRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = svc.materials.ListCatalogMaterials(gctx)
		return errors.Wrap(err, "listing materials catalog")
	})
	g.Go(func() error {
		var err error
		codes, err = svc.practices.ListPracticeCodes(gctx)
		return errors.Wrap(err, "listing practice codes")
	})
	g.Go(func() error {
		var err error
		rows, err = svc.repo.GroupEventsByUser(gctx, userID)
		return errors.Wrap(err, "grouping events")
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "summary failed")
		return Summary{}, err
	}

	sum := buildSummary(catalog, codes, foldGroups(rows))
	span.SetAttributes(
		attribute.Int("summary.materials_available", sum.TotalMaterialsAvailable),
		attribute.Int("summary.practices_available", sum.TotalPracticesAvailable),
	)
	return sum, nil
}

// Progress computes the scalar report without building any per-item breakdown.
func (svc *service) Progress(ctx context.Context, userID string) (Progress, error) {
	if !core.IsValidID(userID) {
		return Progress{}, ErrInvalidID
	}
	ctx, span := svc.tracer.Start(ctx, "statistic.Progress", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	var (
		materials, practices int
		touched              TouchedCounts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		materials, err = svc.materials.CountMaterials(gctx)
		return errors.Wrap(err, "counting materials")
	})
	g.Go(func() error {
		var err error
		practices, err = svc.practices.CountPracticeCodes(gctx)
		return errors.Wrap(err, "counting practice codes")
	})
	g.Go(func() error {
		var err error
		touched, err = svc.repo.CountTouchedByUser(gctx, userID)
		return errors.Wrap(err, "counting touched catalog items")
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "progress failed")
		return Progress{}, err
	}
	return buildProgress(materials, practices, touched), nil
}

// CatalogInvalidator drops any cached copy of the catalogs. It is called after every catalog write.
type CatalogInvalidator interface {
	InvalidateCatalog(ctx context.Context) error
}

// NoopInvalidator is used when the catalogs are not cached.
type NoopInvalidator struct{}

func (NoopInvalidator) InvalidateCatalog(context.Context) error { return nil }
