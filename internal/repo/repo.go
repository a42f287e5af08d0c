package repo

import (
	"context"
	"errors"

	"github.com/geocoder89/promohub/internal/domain/promotion"
	"github.com/geocoder89/promohub/internal/domain/user"
	"github.com/geocoder89/promohub/internal/query"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Patch maps document field names to their new values.
type Patch map[string]any

// Collection is the persistence gateway for one entity. Implementations
// assign ids and maintain createdAt/updatedAt.
type Collection[T any] interface {
	Find(ctx context.Context, q query.Query) ([]T, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
	FindByID(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, doc T) (T, error)
	UpdateByID(ctx context.Context, id string, patch Patch) (T, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// Store bundles the collections of one backend with its connection lifecycle.
type Store struct {
	Driver     string
	Users      Collection[user.User]
	Promotions Collection[promotion.Promotion]

	ping  func(context.Context) error
	close func(context.Context) error
}

func NewStore(driver string, users Collection[user.User], promotions Collection[promotion.Promotion], ping, closeFn func(context.Context) error) *Store {
	return &Store{
		Driver:     driver,
		Users:      users,
		Promotions: promotions,
		ping:       ping,
		close:      closeFn,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Instrumented wraps both collections with tracing and the given observer.
func (s *Store) Instrumented(obs Observer) *Store {
	out := *s
	out.Users = Instrument("users", s.Users, obs)
	out.Promotions = Instrument("promotions", s.Promotions, obs)

	return &out
}
