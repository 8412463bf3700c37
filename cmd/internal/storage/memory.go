package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"liftlog/cmd/identity"
	"liftlog/cmd/identity/ids"
	"liftlog/cmd/internal/auth/session"
	"liftlog/cmd/internal/ownership"
)

var (
	errMemOwnerMissing = errors.New("memory: owner does not exist")
	errMemUserMissing  = errors.New("memory: user does not exist")
)

// Memory is a dev-only Backend used when no database is configured.
//
// Transactions are serialized: WithTx holds the lock for the whole of fn,
// works on a copy of the state and swaps the copy in on success. Deleting an
// owner cascades to its users, sessions and resources like the Postgres
// foreign keys do.
type Memory struct {
	mu  sync.Mutex
	st  *memState
	now func() time.Time
}

type memOwner struct {
	expiresAt *time.Time
}

type memState struct {
	owners    map[string]memOwner
	users     map[string]identity.User
	sessions  map[string]session.Claims
	resources map[ownership.Table]map[int64]string
	nextID    int64
}

// MemoryOption configures a Memory backend.
type MemoryOption func(*Memory)

// WithMemoryClock overrides the clock used for expiry and ids.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory constructs an empty in-memory backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		st: &memState{
			owners:    make(map[string]memOwner),
			users:     make(map[string]identity.User),
			sessions:  make(map[string]session.Claims),
			resources: make(map[ownership.Table]map[int64]string),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *Memory) Sessions() session.Store { return memSessions{m.adhoc()} }

func (m *Memory) Users() identity.Store { return memUsers{m.adhoc()} }

func (m *Memory) Owned() ownership.Counter { return memCounter{m.adhoc()} }

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Close() {}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

// WithTx runs fn against a private copy of the state.
func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.st.clone()
	v := memView{now: m.now, exec: func(f func(*memState) error) error { return f(work) }}
	if err := fn(ctx, memTx{v}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.st = work
	return nil
}

// AddResource inserts a row owned by ownerID into table and returns its id.
func (m *Memory) AddResource(table ownership.Table, ownerID string) (int64, error) {
	if !table.Valid() {
		return 0, fmt.Errorf("%w: %v", ownership.ErrUnknownTable, table)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.st.owners[ownerID]; !ok {
		return 0, errMemOwnerMissing
	}
	rows := m.st.resources[table]
	if rows == nil {
		rows = make(map[int64]string)
		m.st.resources[table] = rows
	}
	m.st.nextID++
	rows[m.st.nextID] = ownerID
	return m.st.nextID, nil
}

// ResourceCount returns how many rows of table ownerID owns.
func (m *Memory) ResourceCount(table ownership.Table, ownerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, owner := range m.st.resources[table] {
		if owner == ownerID {
			n++
		}
	}
	return n
}

func (m *Memory) adhoc() memView {
	return memView{
		now: m.now,
		exec: func(f func(*memState) error) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			return f(m.st)
		},
	}
}

func (s *memState) clone() *memState {
	cp := &memState{
		owners:    maps.Clone(s.owners),
		users:     maps.Clone(s.users),
		sessions:  maps.Clone(s.sessions),
		resources: make(map[ownership.Table]map[int64]string, len(s.resources)),
		nextID:    s.nextID,
	}
	for t, rows := range s.resources {
		cp.resources[t] = maps.Clone(rows)
	}
	return cp
}

func (s *memState) deleteOwner(ownerID string) bool {
	if _, ok := s.owners[ownerID]; !ok {
		return false
	}
	delete(s.owners, ownerID)
	for id, u := range s.users {
		if u.OwnerID == ownerID {
			delete(s.users, id)
		}
	}
	for id, c := range s.sessions {
		if c.OwnerID == ownerID {
			delete(s.sessions, id)
		}
	}
	for _, rows := range s.resources {
		for id, owner := range rows {
			if owner == ownerID {
				delete(rows, id)
			}
		}
	}
	return true
}

func (s *memState) ownerHasUser(ownerID string) bool {
	for _, u := range s.users {
		if u.OwnerID == ownerID {
			return true
		}
	}
	return false
}

type memView struct {
	now  func() time.Time
	exec func(func(*memState) error) error
}

type memTx struct{ v memView }

func (t memTx) Sessions() session.Store { return memSessions{t.v} }

func (t memTx) Users() identity.Store { return memUsers{t.v} }

func (t memTx) Owned() ownership.Counter { return memCounter{t.v} }

type memSessions struct{ v memView }

func (s memSessions) InsertSession(ctx context.Context, ownerID string, userID *string, expiresAt *time.Time) (session.Claims, error) {
	const op = "session.InsertSession"
	if err := ctx.Err(); err != nil {
		return session.Claims{}, &session.StoreError{Op: op, Err: err}
	}

	now := s.v.now()
	exp := session.NewExpiry(now)
	if expiresAt != nil {
		exp = expiresAt.UTC()
	}

	var c session.Claims
	err := s.v.exec(func(st *memState) error {
		if _, ok := st.owners[ownerID]; !ok {
			return errMemOwnerMissing
		}
		if userID != nil {
			if _, ok := st.users[*userID]; !ok {
				return errMemUserMissing
			}
		}
		id, err := ids.NewULID(now)
		if err != nil {
			return err
		}
		c = session.Claims{ID: id, OwnerID: ownerID, UserID: cloneString(userID), ExpiresAt: exp}
		st.sessions[id] = c
		return nil
	})
	if err != nil {
		return session.Claims{}, &session.StoreError{Op: op, Err: err}
	}
	return c, nil
}

func (s memSessions) SelectSession(ctx context.Context, id string) (session.Claims, bool, error) {
	if err := ctx.Err(); err != nil {
		return session.Claims{}, false, &session.StoreError{Op: "session.SelectSession", Err: err}
	}
	var (
		c  session.Claims
		ok bool
	)
	_ = s.v.exec(func(st *memState) error {
		c, ok = st.sessions[id]
		return nil
	})
	return c, ok, nil
}

func (s memSessions) Revoke(ctx context.Context, c session.Claims) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &session.StoreError{Op: "session.Revoke", Err: err}
	}
	var removed bool
	_ = s.v.exec(func(st *memState) error {
		_, removed = st.sessions[c.ID]
		delete(st.sessions, c.ID)
		return nil
	})
	return removed, nil
}

func (s memSessions) CreateOwner(ctx context.Context, expiresAt time.Time) (string, error) {
	const op = "session.CreateOwner"
	if err := ctx.Err(); err != nil {
		return "", &session.StoreError{Op: op, Err: err}
	}

	id, err := ids.NewULID(s.v.now())
	if err != nil {
		return "", &session.StoreError{Op: op, Err: err}
	}
	exp := expiresAt.UTC()
	_ = s.v.exec(func(st *memState) error {
		st.owners[id] = memOwner{expiresAt: &exp}
		return nil
	})
	return id, nil
}

func (s memSessions) SelectOwner(ctx context.Context, ownerID string) (session.Owner, error) {
	if err := ctx.Err(); err != nil {
		return session.Owner{}, &session.StoreError{Op: "session.SelectOwner", Err: err}
	}
	var (
		o  memOwner
		ok bool
	)
	_ = s.v.exec(func(st *memState) error {
		o, ok = st.owners[ownerID]
		return nil
	})
	if !ok {
		return session.Owner{}, session.ErrOwnerNotFound
	}
	return session.Owner{ID: ownerID, ExpiresAt: cloneTime(o.expiresAt)}, nil
}

func (s memSessions) DeleteOwnerIfAnonymous(ctx context.Context, c session.Claims) error {
	if !c.Anonymous() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &session.StoreError{Op: "session.DeleteOwnerIfAnonymous", Err: err}
	}
	return s.v.exec(func(st *memState) error {
		o, ok := st.owners[c.OwnerID]
		if !ok || o.expiresAt == nil || st.ownerHasUser(c.OwnerID) {
			return nil
		}
		st.deleteOwner(c.OwnerID)
		return nil
	})
}

func (s memSessions) SweepExpired(ctx context.Context) (session.SweepResult, error) {
	if err := ctx.Err(); err != nil {
		return session.SweepResult{}, &session.StoreError{Op: "session.SweepExpired", Err: err}
	}

	now := s.v.now()
	var res session.SweepResult
	_ = s.v.exec(func(st *memState) error {
		for id, o := range st.owners {
			if o.expiresAt != nil && !now.Before(*o.expiresAt) && st.deleteOwner(id) {
				res.Owners++
			}
		}
		for id, c := range st.sessions {
			if c.Expired(now) {
				delete(st.sessions, id)
				res.Sessions++
			}
		}
		return nil
	})
	return res, nil
}

type memUsers struct{ v memView }

func (u memUsers) UserByUsername(ctx context.Context, username string) (identity.User, error) {
	return u.find(ctx, "identity.UserByUsername", func(x identity.User) bool {
		return x.Username == identity.NormalizeUsername(username)
	})
}

func (u memUsers) UserByOwner(ctx context.Context, ownerID string) (identity.User, error) {
	return u.find(ctx, "identity.UserByOwner", func(x identity.User) bool {
		return x.OwnerID == ownerID
	})
}

func (u memUsers) find(ctx context.Context, op string, match func(identity.User) bool) (identity.User, error) {
	if err := ctx.Err(); err != nil {
		return identity.User{}, err
	}
	var (
		found identity.User
		ok    bool
	)
	_ = u.v.exec(func(st *memState) error {
		for _, x := range st.users {
			if match(x) {
				found, ok = x, true
				return nil
			}
		}
		return nil
	})
	if !ok {
		return identity.User{}, identity.NotFoundError{Op: op, Resource: "user"}
	}
	return found, nil
}

func (u memUsers) CreateUser(ctx context.Context, in identity.CreateUserInput) (identity.User, error) {
	const op = "identity.CreateUser"
	if err := ctx.Err(); err != nil {
		return identity.User{}, err
	}

	username := identity.NormalizeUsername(in.Username)
	if username == "" {
		return identity.User{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "username is required"}
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return identity.User{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "password hash is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = u.v.now().UTC()
	}
	ownerID, err := ids.NewULID(now)
	if err != nil {
		return identity.User{}, err
	}
	userID, err := ids.NewULID(now)
	if err != nil {
		return identity.User{}, err
	}

	user := identity.User{
		ID:           userID,
		Username:     username,
		PasswordHash: in.PasswordHash,
		OwnerID:      ownerID,
		CreatedAt:    now.UTC(),
	}
	err = u.v.exec(func(st *memState) error {
		for _, x := range st.users {
			if x.Username == username {
				return identity.ConflictError{Op: op, Field: "username"}
			}
		}
		st.owners[ownerID] = memOwner{}
		st.users[userID] = user
		return nil
	})
	if err != nil {
		return identity.User{}, err
	}
	return user, nil
}

type memCounter struct{ v memView }

func (c memCounter) CountOwned(ctx context.Context, table ownership.Table, ownerID string, idList any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	keys, ok := idList.([]int64)
	if !ok {
		return 0, fmt.Errorf("memory: %s ids must be []int64, got %T", table, idList)
	}

	var n int64
	_ = c.v.exec(func(st *memState) error {
		rows := st.resources[table]
		seen := make(map[int64]bool, len(keys))
		for _, id := range keys {
			if seen[id] {
				continue
			}
			seen[id] = true
			if owner, ok := rows[id]; ok && owner == ownerID {
				n++
			}
		}
		return nil
	})
	return n, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
