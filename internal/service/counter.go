package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/model"
	"snaps_engagement/internal/repository"
)

// CounterMaintainer translates edge transitions into counter updates. It must
// run inside the same transaction as the edge mutation it accounts for.
type CounterMaintainer struct {
	counters repository.CounterRepository
}

func NewCounterMaintainer(counters repository.CounterRepository) *CounterMaintainer {
	return &CounterMaintainer{counters: counters}
}

type counterRef struct {
	counter model.Counter
	id      int64
}

// countersFor lists the counters driven by an edge. Follow touches two user
// rows; they are returned in ascending id order so concurrent A→B and B→A
// follows lock the rows in the same order.
func countersFor(kind model.EdgeKind, actorID, targetID int64) []counterRef {
	switch kind {
	case model.EdgeFollow:
		refs := []counterRef{
			{counter: model.CounterFollowers, id: targetID},
			{counter: model.CounterFollowing, id: actorID},
		}
		sort.Slice(refs, func(i, j int) bool { return refs[i].id < refs[j].id })
		return refs
	case model.EdgePostLike:
		return []counterRef{{counter: model.CounterPostLikes, id: targetID}}
	case model.EdgeCommentLike:
		return []counterRef{{counter: model.CounterCommentLikes, id: targetID}}
	}
	// Collection edges carry no counters.
	return nil
}

// Apply moves every counter driven by the edge one step in the direction of
// delta and returns the stored values afterwards, keyed by field name.
func (m *CounterMaintainer) Apply(ctx context.Context, tx *sqlx.Tx, kind model.EdgeKind, actorID, targetID int64, delta int) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, ref := range countersFor(kind, actorID, targetID) {
		value, err := m.Adjust(ctx, tx, ref.counter, ref.id, delta)
		if err != nil {
			return nil, err
		}
		counts[ref.counter.Field] = value
	}
	return counts, nil
}

// Adjust increments (delta > 0) or decrements (delta < 0) a single counter.
// Decrements never take a counter below zero.
func (m *CounterMaintainer) Adjust(ctx context.Context, tx *sqlx.Tx, c model.Counter, id int64, delta int) (int64, error) {
	switch {
	case delta > 0:
		return m.counters.Increment(ctx, tx, c, id)
	case delta < 0:
		return m.counters.Decrement(ctx, tx, c, id)
	}
	return 0, fmt.Errorf("adjust %s by zero: %w", c, model.ErrInvalidInput)
}

// Lock holds the entity's row lock for the rest of tx. Liveness read after
// the lock cannot be invalidated by a soft delete until tx ends.
func (m *CounterMaintainer) Lock(ctx context.Context, tx *sqlx.Tx, entity model.EntityKind, id int64) error {
	return m.counters.Lock(ctx, tx, entity, id)
}
