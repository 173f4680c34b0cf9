package book

import (
	"context"
	"errors"
	"log/slog"

	"librarycatalog/internal/entity"
)

// Resolved is the outcome of a find-or-create. Created is false when an
// existing entity was reused.
type Resolved[T any] struct {
	Entity  T
	Created bool
}

// Resolver finds authors and genres by their natural key and creates them on
// a miss. It holds no locks: two concurrent misses for the same key both
// create unless the Store enforces uniqueness and reports ErrConflict, in which
// case the loser re-reads the winner's record.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

func NewResolver(store Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

func (r *Resolver) ResolveAuthor(ctx context.Context, familyName, firstName string) (Resolved[entity.Author], error) {
	return findOrCreate(ctx, r, "author",
		func(ctx context.Context) (entity.Author, error) {
			return r.store.FindAuthor(ctx, familyName, firstName)
		},
		func(ctx context.Context) (entity.Author, error) {
			a := entity.Author{FamilyName: familyName, FirstName: firstName}
			err := r.store.CreateAuthor(ctx, &a)
			return a, err
		},
	)
}

func (r *Resolver) ResolveGenre(ctx context.Context, name string) (Resolved[entity.Genre], error) {
	return findOrCreate(ctx, r, "genre",
		func(ctx context.Context) (entity.Genre, error) {
			return r.store.FindGenre(ctx, name)
		},
		func(ctx context.Context) (entity.Genre, error) {
			g := entity.Genre{Name: name}
			err := r.store.CreateGenre(ctx, &g)
			return g, err
		},
	)
}

func findOrCreate[T any](
	ctx context.Context,
	r *Resolver,
	kind string,
	find func(context.Context) (T, error),
	create func(context.Context) (T, error),
) (Resolved[T], error) {
	found, err := find(ctx)
	if err == nil {
		return Resolved[T]{Entity: found}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Resolved[T]{}, &PersistenceError{Op: "find " + kind, Err: err}
	}

	created, err := create(ctx)
	if err == nil {
		return Resolved[T]{Entity: created, Created: true}, nil
	}
	if !errors.Is(err, ErrConflict) {
		return Resolved[T]{}, &PersistenceError{Op: "create " + kind, Err: err}
	}
	r.logger.Info("concurrent create detected, reusing existing record", "kind", kind)

	// Lost a create race against a unique index; the winner's row is the answer.
	found, err = find(ctx)
	if err != nil {
		return Resolved[T]{}, &PersistenceError{Op: "find " + kind + " after conflict", Err: err}
	}
	return Resolved[T]{Entity: found}, nil
}
