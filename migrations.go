package pathwise

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// schemaModels lists every table in creation order so foreign keys resolve.
var schemaModels = []any{
	(*User)(nil),
	(*StudentProfile)(nil),
	(*Application)(nil),
	(*Consultation)(nil),
	(*Message)(nil),
	(*Applicant)(nil),
	(*Consent)(nil),
	(*University)(nil),
	(*GDPRRequest)(nil),
}

// CreateSchema builds the tables if they do not exist. Good enough for
// sqlite deployments and the test suite; a real migration tool can take
// over once the schema starts evolving.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range schemaModels {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)

		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create table").
				WithMetadata(map[string]any{"model": fmt.Sprintf("%T", model)})
		}
	}

	return nil
}
