package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/promohub/internal/domain/user"
	"github.com/geocoder89/promohub/internal/query"
	"github.com/geocoder89/promohub/internal/repo"
)

var userSortable = []string{"createdAt", "updatedAt", "name", "email"}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// UserService never returns the stored password hash; every result is a
// user.View.
type UserService struct {
	store  repo.Collection[user.User]
	hasher PasswordHasher
	log    *slog.Logger
}

func NewUserService(store repo.Collection[user.User], hasher PasswordHasher, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}

	return &UserService{store: store, hasher: hasher, log: log}
}

func (s *UserService) List(ctx context.Context, p query.Params) (query.Page[user.View], error) {
	q, err := query.Build(p, userSortable, nil)
	if err != nil {
		return query.Page[user.View]{}, err
	}

	items, err := s.store.Find(ctx, q)
	if err != nil {
		return query.Page[user.View]{}, storeFailure(ctx, s.log, "users.list", err)
	}

	total, err := s.store.Count(ctx, nil)
	if err != nil {
		return query.Page[user.View]{}, storeFailure(ctx, s.log, "users.list", err)
	}

	return query.NewPage(user.ToViews(items), p, total), nil
}

func (s *UserService) Get(ctx context.Context, id string) (user.View, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return user.View{}, s.mapErr(ctx, "users.get", err)
	}

	return u.ToView(), nil
}

func (s *UserService) Create(ctx context.Context, req user.CreateRequest) (user.View, error) {
	if err := req.Validate(); err != nil {
		return user.View{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return user.View{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.Insert(ctx, user.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
	})
	if err != nil {
		return user.View{}, s.mapErr(ctx, "users.create", err)
	}

	return u.ToView(), nil
}

// Update applies the supplied fields. A new password is stored as its hash.
func (s *UserService) Update(ctx context.Context, id string, req user.UpdateRequest) (user.View, error) {
	if err := req.Validate(); err != nil {
		return user.View{}, err
	}

	fields := req.Fields()

	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return user.View{}, fmt.Errorf("hash password: %w", err)
		}
		fields["password"] = hash
	}

	if len(fields) == 0 {
		return s.Get(ctx, id)
	}

	u, err := s.store.UpdateByID(ctx, id, fields)
	if err != nil {
		return user.View{}, s.mapErr(ctx, "users.update", err)
	}

	return u.ToView(), nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	found, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return storeFailure(ctx, s.log, "users.delete", err)
	}
	if !found {
		return user.ErrNotFound
	}

	return nil
}

func (s *UserService) mapErr(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return user.ErrNotFound
	case errors.Is(err, repo.ErrDuplicate):
		return user.DuplicateEmail()
	}

	return storeFailure(ctx, s.log, op, err)
}
