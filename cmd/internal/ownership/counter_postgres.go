package ownership

import (
	"context"
	"fmt"

	"liftlog/cmd/internal/dbx"
)

// PostgresCounter implements Counter with a single count(*) per call.
type PostgresCounter struct {
	q dbx.Querier
}

// NewPostgresCounter binds a counter to q (a pool or a pgx.Tx).
func NewPostgresCounter(q dbx.Querier) *PostgresCounter {
	return &PostgresCounter{q: q}
}

// CountOwned counts the distinct rows of table among ids owned by ownerID.
func (c *PostgresCounter) CountOwned(ctx context.Context, table Table, ownerID string, ids any) (int64, error) {
	if !table.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrUnknownTable, table)
	}

	var n int64
	err := c.q.QueryRow(ctx,
		`SELECT count(*) FROM `+table.identifier()+` WHERE owner_id = $1 AND id = ANY($2)`,
		ownerID, ids,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
