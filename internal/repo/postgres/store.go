package postgres

import (
	"context"

	"github.com/geocoder89/promohub/internal/domain/promotion"
	"github.com/geocoder89/promohub/internal/domain/user"
	"github.com/geocoder89/promohub/internal/repo"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewStore(pool *pgxpool.Pool) *repo.Store {
	return repo.NewStore("postgres",
		NewCollection[user.User](pool, "users"),
		NewCollection[promotion.Promotion](pool, "promotions", "startDate", "endDate"),
		pool.Ping,
		func(context.Context) error {
			pool.Close()
			return nil
		},
	)
}
