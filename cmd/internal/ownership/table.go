// Package ownership confirms that resource rows belong to the calling owner.
//
// Resource handlers call Assert for a single reference and AssertAll for a
// list of references before touching rows by id. A failed assertion is a
// 409 that never says whether the id exists under another owner.
package ownership

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Table is one of the owner-scoped resource tables.
type Table int

const (
	Profiles Table = iota + 1
	Movements
	Sets
	Programs
	Maxes
	Reps
)

var tableNames = map[Table]string{
	Profiles:  "profiles",
	Movements: "movements",
	Sets:      "sets",
	Programs:  "programs",
	Maxes:     "maxes",
	Reps:      "reps",
}

// Tables lists every owner-scoped table.
func Tables() []Table {
	return []Table{Profiles, Movements, Sets, Programs, Maxes, Reps}
}

func (t Table) String() string {
	if name, ok := tableNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Table(%d)", int(t))
}

// Valid reports whether t is a known table.
func (t Table) Valid() bool {
	_, ok := tableNames[t]
	return ok
}

// identifier returns the quoted SQL identifier for t.
func (t Table) identifier() string {
	return pgx.Identifier{tableNames[t]}.Sanitize()
}
