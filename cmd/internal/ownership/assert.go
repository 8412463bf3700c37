package ownership

import (
	"context"
	"fmt"
)

// ID is the type of a resource primary key.
type ID interface {
	int64 | string
}

// Counter counts rows of table with owner ownerID whose id is in ids.
// ids is a []int64 or []string; each matching row is counted once.
type Counter interface {
	CountOwned(ctx context.Context, table Table, ownerID string, ids any) (int64, error)
}

// Assert succeeds iff the row id of table exists and belongs to ownerID.
func Assert[T ID](ctx context.Context, c Counter, table Table, ownerID string, id T) error {
	return AssertAll(ctx, c, table, ownerID, []T{id})
}

// AssertAll succeeds iff the number of rows among ids owned by ownerID equals
// len(ids). A repeated id counts once on the database side but twice in
// len(ids), so lists with duplicates always fail. An empty list succeeds.
func AssertAll[T ID](ctx context.Context, c Counter, table Table, ownerID string, ids []T) error {
	if !table.Valid() {
		return fmt.Errorf("ownership.AssertAll: %w: %v", ErrUnknownTable, table)
	}
	if len(ids) == 0 {
		return nil
	}

	n, err := c.CountOwned(ctx, table, ownerID, ids)
	if err != nil {
		return fmt.Errorf("ownership.AssertAll %s: %w", table, err)
	}
	if n != int64(len(ids)) {
		return &Error{Table: table}
	}
	return nil
}
