package db

import (
	"context"
	_ "embed"
	"fmt"
)

// schema creates every table the services touch. Statements are idempotent
// so Migrate runs on every start.
//
//go:embed schema.sql
var schema string

func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
