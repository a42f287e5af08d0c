package repo

import (
	"context"
	"errors"

	"github.com/geocoder89/promohub/internal/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Observer records the outcome of one logical store operation.
type Observer interface {
	ObserveDB(op string, fn func() error) error
}

var tracer = otel.Tracer("github.com/geocoder89/promohub/internal/repo")

type instrumented[T any] struct {
	name string
	next Collection[T]
	obs  Observer
}

// Instrument decorates c with a span and an observer call per operation.
// A nil observer only traces. ErrNotFound is a normal outcome and is not
// recorded as an error.
func Instrument[T any](name string, c Collection[T], obs Observer) Collection[T] {
	return &instrumented[T]{name: name, next: c, obs: obs}
}

func (i *instrumented[T]) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	full := i.name + "." + op

	ctx, span := tracer.Start(ctx, "repo."+full,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.collection", i.name)),
	)
	defer span.End()

	var err error
	if i.obs == nil {
		err = fn(ctx)
	} else {
		var notFound bool
		err = i.obs.ObserveDB(full, func() error {
			e := fn(ctx)
			if errors.Is(e, ErrNotFound) {
				notFound = true
				return nil
			}
			return e
		})
		if notFound {
			err = ErrNotFound
		}
	}

	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

func (i *instrumented[T]) Find(ctx context.Context, q query.Query) ([]T, error) {
	var out []T
	err := i.run(ctx, "find", func(ctx context.Context) error {
		var err error
		out, err = i.next.Find(ctx, q)
		return err
	})
	return out, err
}

func (i *instrumented[T]) Count(ctx context.Context, f query.Filter) (int64, error) {
	var n int64
	err := i.run(ctx, "count", func(ctx context.Context) error {
		var err error
		n, err = i.next.Count(ctx, f)
		return err
	})
	return n, err
}

func (i *instrumented[T]) FindByID(ctx context.Context, id string) (T, error) {
	var out T
	err := i.run(ctx, "find_by_id", func(ctx context.Context) error {
		var err error
		out, err = i.next.FindByID(ctx, id)
		return err
	})
	return out, err
}

func (i *instrumented[T]) Insert(ctx context.Context, doc T) (T, error) {
	var out T
	err := i.run(ctx, "insert", func(ctx context.Context) error {
		var err error
		out, err = i.next.Insert(ctx, doc)
		return err
	})
	return out, err
}

func (i *instrumented[T]) UpdateByID(ctx context.Context, id string, patch Patch) (T, error) {
	var out T
	err := i.run(ctx, "update_by_id", func(ctx context.Context) error {
		var err error
		out, err = i.next.UpdateByID(ctx, id, patch)
		return err
	})
	return out, err
}

func (i *instrumented[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	var found bool
	err := i.run(ctx, "delete_by_id", func(ctx context.Context) error {
		var err error
		found, err = i.next.DeleteByID(ctx, id)
		return err
	})
	return found, err
}
