package memory

import (
	"github.com/geocoder89/promohub/internal/domain/promotion"
	"github.com/geocoder89/promohub/internal/domain/user"
	"github.com/geocoder89/promohub/internal/repo"
)

// NewStore is a process-local store for development and tests. Data is lost
// on restart.
func NewStore(opts ...Option) *repo.Store {
	return repo.NewStore("memory",
		NewCollection[user.User](append([]Option{WithUnique("email")}, opts...)...),
		NewCollection[promotion.Promotion](opts...),
		nil,
		nil,
	)
}
