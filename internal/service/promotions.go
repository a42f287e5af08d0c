package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/promohub/internal/cache"
	"github.com/geocoder89/promohub/internal/domain/promotion"
	"github.com/geocoder89/promohub/internal/query"
	"github.com/geocoder89/promohub/internal/repo"
)

var promotionSortable = []string{
	"createdAt", "updatedAt", "productName", "price", "currency", "startDate", "endDate", "status",
}

const activeCacheKey = "promotions:active"

type PromotionService struct {
	store  repo.Collection[promotion.Promotion]
	log    *slog.Logger
	now    func() time.Time
	active *cache.Cache[[]promotion.Promotion]
}

type PromotionOption func(*PromotionService)

// WithActiveCache keeps the approved, not yet ended promotions in c between
// reads. Every write through the service drops the entry, and the activity
// window is still evaluated against the clock on each call.
func WithActiveCache(c *cache.Cache[[]promotion.Promotion]) PromotionOption {
	return func(s *PromotionService) { s.active = c }
}

// NewPromotionService builds the service. now defaults to time.Now and is
// read on every call.
func NewPromotionService(store repo.Collection[promotion.Promotion], log *slog.Logger, now func() time.Time, opts ...PromotionOption) *PromotionService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}

	s := &PromotionService{store: store, log: log, now: now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *PromotionService) List(ctx context.Context, p query.Params, f promotion.ListFilter) (query.Page[promotion.View], error) {
	filter := query.Filter{}.
		EqIfSet("status", f.Status).
		EqIfSet("submittedBy", f.SubmittedBy)

	return s.page(ctx, "promotions.list", p, filter)
}

// ListByUser always returns newest first; sort params are ignored.
func (s *PromotionService) ListByUser(ctx context.Context, userID string, p query.Params) (query.Page[promotion.View], error) {
	p.SortBy = "createdAt"
	p.SortOrder = "desc"

	return s.page(ctx, "promotions.list_by_user", p, query.Filter{}.Eq("submittedBy", userID))
}

func (s *PromotionService) page(ctx context.Context, op string, p query.Params, filter query.Filter) (query.Page[promotion.View], error) {
	q, err := query.Build(p, promotionSortable, filter)
	if err != nil {
		return query.Page[promotion.View]{}, err
	}

	items, err := s.store.Find(ctx, q)
	if err != nil {
		return query.Page[promotion.View]{}, storeFailure(ctx, s.log, op, err)
	}

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return query.Page[promotion.View]{}, storeFailure(ctx, s.log, op, err)
	}

	return query.NewPage(promotion.ToViews(items, s.now()), p, total), nil
}

// Active returns approved promotions whose window contains the current time,
// earliest start first.
func (s *PromotionService) Active(ctx context.Context) ([]promotion.View, error) {
	now := s.now().UTC()

	if s.active != nil {
		return s.activeCached(ctx, now)
	}

	items, err := s.store.Find(ctx, query.Query{
		Filter: query.Filter{}.
			Eq("status", promotion.StatusApproved).
			Lte("startDate", now).
			Gte("endDate", now),
		Sort: query.Sort{Field: "startDate", Dir: query.Asc},
	})
	if err != nil {
		return nil, storeFailure(ctx, s.log, "promotions.active", err)
	}

	return promotion.ToViews(items, now), nil
}

func (s *PromotionService) activeCached(ctx context.Context, now time.Time) ([]promotion.View, error) {
	candidates, ok := s.active.Get(activeCacheKey)
	if !ok {
		var err error
		candidates, err = s.store.Find(ctx, query.Query{
			Filter: query.Filter{}.
				Eq("status", promotion.StatusApproved).
				Gte("endDate", now),
			Sort: query.Sort{Field: "startDate", Dir: query.Asc},
		})
		if err != nil {
			return nil, storeFailure(ctx, s.log, "promotions.active", err)
		}

		s.active.Set(activeCacheKey, candidates)
	}

	out := make([]promotion.View, 0, len(candidates))
	for _, p := range candidates {
		if p.IsActive(now) {
			out = append(out, p.ToView(now))
		}
	}

	return out, nil
}

func (s *PromotionService) invalidate() {
	if s.active != nil {
		s.active.Delete(activeCacheKey)
	}
}

func (s *PromotionService) Get(ctx context.Context, id string) (promotion.View, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return promotion.View{}, s.mapErr(ctx, "promotions.get", err)
	}

	return p.ToView(s.now()), nil
}

func (s *PromotionService) Create(ctx context.Context, req promotion.CreateRequest) (promotion.View, error) {
	if err := req.Validate(); err != nil {
		return promotion.View{}, err
	}

	p, err := s.store.Insert(ctx, req.ToPromotion())
	if err != nil {
		return promotion.View{}, storeFailure(ctx, s.log, "promotions.create", err)
	}
	s.invalidate()

	return p.ToView(s.now()), nil
}

// Update applies the supplied fields. When only one date is supplied the
// stored counterpart is loaded so the window can be checked as a whole.
func (s *PromotionService) Update(ctx context.Context, id string, req promotion.UpdateRequest) (promotion.View, error) {
	if err := req.Validate(); err != nil {
		return promotion.View{}, err
	}

	if req.TouchesOneDate() {
		current, err := s.store.FindByID(ctx, id)
		if err != nil {
			return promotion.View{}, s.mapErr(ctx, "promotions.update", err)
		}

		start, end := current.StartDate, current.EndDate
		if req.StartDate != nil {
			start = *req.StartDate
		}
		if req.EndDate != nil {
			end = *req.EndDate
		}

		if err := promotion.CheckDateOrder(start, end); err != nil {
			return promotion.View{}, err
		}
	}

	fields := req.Fields()
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}

	p, err := s.store.UpdateByID(ctx, id, fields)
	if err != nil {
		return promotion.View{}, s.mapErr(ctx, "promotions.update", err)
	}
	s.invalidate()

	return p.ToView(s.now()), nil
}

// UpdateStatus rejects an unknown status before the store is touched. The
// comment is only replaced when a non-empty one is given.
func (s *PromotionService) UpdateStatus(ctx context.Context, id string, req promotion.StatusUpdateRequest) (promotion.View, error) {
	if err := req.Validate(); err != nil {
		return promotion.View{}, err
	}

	p, err := s.store.UpdateByID(ctx, id, req.Fields())
	if err != nil {
		return promotion.View{}, s.mapErr(ctx, "promotions.update_status", err)
	}
	s.invalidate()

	return p.ToView(s.now()), nil
}

func (s *PromotionService) Delete(ctx context.Context, id string) error {
	found, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return storeFailure(ctx, s.log, "promotions.delete", err)
	}
	if !found {
		return promotion.ErrNotFound
	}
	s.invalidate()

	return nil
}

func (s *PromotionService) mapErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return promotion.ErrNotFound
	}

	return storeFailure(ctx, s.log, op, err)
}
