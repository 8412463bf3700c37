package ownership

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

// rowsCounter counts distinct owned ids the way the SQL query does.
type rowsCounter struct {
	owners map[int64]string
	err    error
}

func (r rowsCounter) CountOwned(_ context.Context, _ Table, ownerID string, ids any) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	seen := map[int64]bool{}
	var n int64
	for _, id := range ids.([]int64) {
		if seen[id] {
			continue
		}
		seen[id] = true
		if r.owners[id] == ownerID {
			n++
		}
	}
	return n, nil
}

func TestAssert(t *testing.T) {
	c := rowsCounter{owners: map[int64]string{1: "A", 2: "A", 3: "B"}}
	ctx := context.Background()

	cases := []struct {
		name    string
		owner   string
		id      int64
		wantErr bool
	}{
		{name: "owner", owner: "A", id: 1},
		{name: "other owner", owner: "B", id: 1, wantErr: true},
		{name: "missing id", owner: "A", id: 99, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Assert(ctx, c, Profiles, tc.owner, tc.id)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrNotOwned) {
				t.Fatalf("expected ErrNotOwned, got %v", err)
			}
			var oe *Error
			if !errors.As(err, &oe) || oe.HTTPStatus() != http.StatusConflict {
				t.Fatalf("expected 409 ownership error, got %v", err)
			}
		})
	}
}

func TestAssert_SameMessageForMissingAndForeign(t *testing.T) {
	c := rowsCounter{owners: map[int64]string{1: "A"}}
	ctx := context.Background()

	foreign := Assert(ctx, c, Sets, "B", int64(1))
	missing := Assert(ctx, c, Sets, "B", int64(2))
	if foreign == nil || missing == nil || foreign.Error() != missing.Error() {
		t.Fatalf("messages differ: %v / %v", foreign, missing)
	}
}

func TestAssertAll(t *testing.T) {
	c := rowsCounter{owners: map[int64]string{1: "A", 2: "A", 3: "B"}}
	ctx := context.Background()

	cases := []struct {
		name    string
		ids     []int64
		wantErr bool
	}{
		{name: "all owned", ids: []int64{1, 2}},
		{name: "one foreign", ids: []int64{1, 3}, wantErr: true},
		{name: "one missing", ids: []int64{1, 42}, wantErr: true},
		// A duplicated reference to a single owned row fails: the count of
		// matching rows is 1 while two ids were presented.
		{name: "duplicate owned id", ids: []int64{1, 1}, wantErr: true},
		{name: "empty", ids: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := AssertAll(ctx, c, Movements, "A", tc.ids)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestAssertAll_CounterErrorIsNotOwnershipFailure(t *testing.T) {
	boom := errors.New("db down")
	err := AssertAll(context.Background(), rowsCounter{err: boom}, Reps, "A", []int64{1})
	if !errors.Is(err, boom) || errors.Is(err, ErrNotOwned) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestAssertAll_UnknownTable(t *testing.T) {
	err := AssertAll(context.Background(), rowsCounter{}, Table(99), "A", []int64{1})
	if !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

func TestTable_Identifier(t *testing.T) {
	for _, tbl := range Tables() {
		if !tbl.Valid() {
			t.Fatalf("%v not valid", tbl)
		}
		if got, want := tbl.identifier(), `"`+tbl.String()+`"`; got != want {
			t.Fatalf("identifier = %s, want %s", got, want)
		}
	}
	if Table(0).Valid() {
		t.Fatalf("zero table must be invalid")
	}
}
