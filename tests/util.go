package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/material"
	"github.com/dewinurmalitasari/geoviz-server/core/practice"
	"github.com/dewinurmalitasari/geoviz-server/core/reaction"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
)

func CreateMaterial(t *testing.T, repo material.Repository, title string, createdAt ...time.Time) material.Material {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	mat, err := repo.CreateMaterial(context.Background(), material.Material{
		ID:          core.NewID(),
		Title:       title,
		Description: title + " description",
		Formula:     "a^2 + b^2 = c^2",
		Example:     title + " example",
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateMaterial() failed: %v", err)
	}
	return mat
}

// TrackEvent stores an event for userID, bypassing validation.
func TrackEvent(t *testing.T, repo statistic.Repository, userID string, payload statistic.Payload, createdAt ...time.Time) statistic.Event {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	evt, err := repo.CreateEvent(context.Background(), statistic.Event{
		ID:        core.NewID(),
		Type:      payload.Type(),
		Payload:   payload,
		UserID:    userID,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("TrackEvent() failed: %v", err)
	}
	return evt
}

// SubmitPractice stores a practice for userID along with its practice_completed event.
func SubmitPractice(
	t *testing.T,
	repo practice.Repository,
	events statistic.Repository,
	userID, code string,
	score practice.Score,
) practice.Practice {
	tstamp := time.Now().UTC()
	prac, err := repo.CreatePractice(context.Background(), practice.Practice{
		ID:        core.NewID(),
		Code:      code,
		Score:     score,
		UserID:    userID,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("SubmitPractice() failed: %v", err)
	}
	TrackEvent(t, events, userID, statistic.PracticeCompletedPayload{Code: code, PracticeRef: prac.ID}, tstamp)
	return prac
}

// React stores userID's reaction to a material or a practice, bypassing validation.
func React(t *testing.T, repo reaction.Repository, userID string, kind reaction.Kind, target, feeling string) reaction.Reaction {
	tstamp := time.Now().UTC()
	r := reaction.Reaction{
		ID:        core.NewID(),
		Reaction:  feeling,
		Type:      kind,
		UserID:    userID,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	r.SetTarget(target)
	r, err := repo.UpsertReaction(context.Background(), r)
	if err != nil {
		t.Fatalf("React() failed: %v", err)
	}
	return r
}
