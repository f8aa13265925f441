package pathwise

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Universities interface {
	repository.Repository[*University]

	// ListActive returns active universities ordered by name ascending,
	// the shape the back office and marketing pages consume.
	ListActive(ctx context.Context) ([]*University, error)
}

type universities struct {
	repository.Repository[*University]
	db *bun.DB
}

var _ Universities = (*universities)(nil)

func NewUniversitiesRepository(db *bun.DB) Universities {
	repo := repository.NewRepository[*University](db, repository.ModelHandlers[*University]{
		NewRecord: func() *University { return &University{} },
		GetID: func(u *University) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *University, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &universities{
		Repository: repo,
		db:         db,
	}
}

func (r *universities) ListActive(ctx context.Context) ([]*University, error) {
	var records []*University
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.active = ?", true).
		Order("name ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}
