package practice

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
)

// ErrInvalidID is returned when a user ID is not a well-formed identifier.
var ErrInvalidID = errors.New("invalid user ID")

type (
	Repository interface {
		statistic.PracticeCatalog

		CreatePractice(ctx context.Context, p Practice, exec ...core.DBExecutor) (Practice, error)
		// QueryPracticesByUser returns the user's practices, newest first.
		QueryPracticesByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Practice, error)
	}

	Service interface {
		Submit(ctx context.Context, userID string, np NewPractice) (Practice, error)
		QueryByUser(ctx context.Context, userID string) ([]Practice, error)
	}

	service struct {
		tx          core.TxRunner
		repo        Repository
		events      statistic.Repository
		invalidator statistic.CatalogInvalidator
		logger      core.Logger
		validate    *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(
	tx core.TxRunner,
	repo Repository,
	events statistic.Repository,
	invalidator statistic.CatalogInvalidator,
	logger core.Logger,
	validate *validator.Validate,
) Service {
	if invalidator == nil {
		invalidator = statistic.NoopInvalidator{}
	}
	return &service{
		tx:          tx,
		repo:        repo,
		events:      events,
		invalidator: invalidator,
		logger:      logger,
		validate:    validate,
	}
}

// Submit stores the practice and records its practice_completed event in the same transaction.
func (svc *service) Submit(ctx context.Context, userID string, np NewPractice) (Practice, error) {
	if !core.IsValidID(userID) {
		return Practice{}, ErrInvalidID
	}
	if err := np.Validate(svc.validate); err != nil {
		return Practice{}, err
	}

	now := time.Now().UTC()
	prac := Practice{
		ID:        core.NewID(),
		Code:      np.Code,
		Score:     Score{Correct: *np.Score.Correct, Total: *np.Score.Total},
		Content:   np.Content,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if prac, err = svc.repo.CreatePractice(ctx, prac, exec); err != nil {
			return errors.Wrap(err, "creating practice")
		}
		_, err = svc.events.CreateEvent(ctx, statistic.Event{
			ID:        core.NewID(),
			Type:      statistic.TypePracticeCompleted,
			Payload:   statistic.PracticeCompletedPayload{Code: prac.Code, PracticeRef: prac.ID},
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}, exec)
		return errors.Wrap(err, "creating practice_completed event")
	})
	if err != nil {
		return Practice{}, err
	}

	// a new code may have joined the universe
	if err = svc.invalidator.InvalidateCatalog(ctx); err != nil {
		svc.logger.Warn("invalidating practice catalog", errors.Wrap(err, "practice catalog"))
	}
	return prac, nil
}

func (svc *service) QueryByUser(ctx context.Context, userID string) ([]Practice, error) {
	if !core.IsValidID(userID) {
		return nil, ErrInvalidID
	}
	pracs, err := svc.repo.QueryPracticesByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying practices")
	}
	if pracs == nil {
		pracs = []Practice{}
	}
	return pracs, nil
}
