package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/geocoder89/authcore/internal/apperr"
	"github.com/geocoder89/authcore/internal/auth"
	"github.com/geocoder89/authcore/internal/dbx"
	"github.com/geocoder89/authcore/internal/domain/user"
	"github.com/geocoder89/authcore/internal/security"
)

type fakeSessions struct {
	sessions int
	txs      int
}

func (f *fakeSessions) Session(ctx context.Context, fn func(ctx context.Context, db dbx.DBTX) error) error {
	f.sessions++
	return fn(ctx, nil)
}

func (f *fakeSessions) Tx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	f.txs++
	return fn(ctx, nil)
}

// fakeDB stands in for the users and roles tables.
type fakeDB struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]user.User
	roles  map[int64]string
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users: map[int64]user.User{},
		roles: map[int64]string{1: "user", 2: "admin"},
	}
}

func (f *fakeDB) InsertUser(ctx context.Context, name, email string, hash []byte, roleID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			return 0, apperr.New("fake.insert", apperr.ErrConflict, nil)
		}
	}
	if roleID <= 0 {
		roleID = 1
	}
	f.nextID++
	f.users[f.nextID] = user.User{ID: f.nextID, Name: name, Email: email, PasswordHash: hash, RoleID: roleID}
	return f.nextID, nil
}

func (f *fakeDB) FindByEmail(ctx context.Context, email string) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := user.ValidateEmail(email); err != nil {
		return user.User{}, apperr.New("fake.find_by_email", apperr.ErrInvalidArgument, err)
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, apperr.New("fake.find_by_email", apperr.ErrNotFound, nil)
}

func (f *fakeDB) FindByID(ctx context.Context, id int64) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return user.User{}, apperr.New("fake.find_by_id", apperr.ErrNotFound, nil)
	}
	return u, nil
}

func (f *fakeDB) RoleNameForUser(ctx context.Context, id int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return "", apperr.New("fake.role_name", apperr.ErrNotFound, nil)
	}
	return f.roles[u.RoleID], nil
}

func (f *fakeDB) UpdateUser(ctx context.Context, id int64, p user.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return apperr.New("fake.update", apperr.ErrNotFound, nil)
	}
	if p.Email != nil {
		for oid, o := range f.users {
			if oid != id && o.Email == *p.Email {
				return apperr.New("fake.update", apperr.ErrConflict, nil)
			}
		}
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	f.users[id] = u
	return nil
}

func (f *fakeDB) ListAll(ctx context.Context) ([]user.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]user.Listing, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, user.Listing{ID: u.ID, Name: u.Name, Email: u.Email, Role: f.roles[u.RoleID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDB) DeleteUser(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[id]; !ok {
		return apperr.New("fake.delete", apperr.ErrNotFound, nil)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeDB) setRole(t *testing.T, userID int64, role string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	var rid int64
	for id, name := range f.roles {
		if name == role {
			rid = id
		}
	}
	if rid == 0 {
		rid = int64(len(f.roles) + 1)
		f.roles[rid] = role
	}
	u := f.users[userID]
	u.RoleID = rid
	f.users[userID] = u
}

type fakeRoles struct{ db *fakeDB }

func (r fakeRoles) Add(ctx context.Context, name string) (user.Role, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, n := range r.db.roles {
		if n == name {
			return user.Role{}, apperr.New("fake.roles.add", apperr.ErrConflict, nil)
		}
	}
	id := int64(len(r.db.roles) + 1)
	r.db.roles[id] = name
	return user.Role{ID: id, Name: name}, nil
}

func (r fakeRoles) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.roles[id]; !ok {
		return apperr.New("fake.roles.delete", apperr.ErrNotFound, nil)
	}
	for _, u := range r.db.users {
		if u.RoleID == id {
			return apperr.New("fake.roles.delete", apperr.ErrConflict, nil)
		}
	}
	delete(r.db.roles, id)
	return nil
}

type recordingMetrics struct {
	mu      sync.Mutex
	results map[string]int
	issued  map[string]int
}

func (m *recordingMetrics) ObserveAuth(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[op+":"+apperr.KindName(err)]++
}

func (m *recordingMetrics) TokenIssued(typ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued[typ]++
}

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

type harness struct {
	db       *fakeDB
	sessions *fakeSessions
	codec    *auth.Codec
	issuer   *auth.Issuer
	resolver *Resolver
	svc      *Service
	metrics  *recordingMetrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = k
	})

	codec, err := auth.NewCodec("RS256", testKey, &testKey.PublicKey)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	db := newFakeDB()
	sessions := &fakeSessions{}
	issuer := auth.NewIssuer(codec, 15*time.Minute, 7*24*time.Hour)
	hasher := security.NewHasher(bcrypt.MinCost)
	resolver := NewResolver(auth.NewGate(codec), hasher, "admin")
	metrics := &recordingMetrics{results: map[string]int{}, issued: map[string]int{}}

	stores := Stores{
		Users: func(dbx.DBTX) UserStore { return db },
		Roles: func(dbx.DBTX) RoleStore { return fakeRoles{db: db} },
	}

	svc := NewService(sessions, stores, resolver, issuer, hasher,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics),
	)

	return &harness{db: db, sessions: sessions, codec: codec, issuer: issuer, resolver: resolver, svc: svc, metrics: metrics}
}

func (h *harness) register(t *testing.T, name, email, password string) user.Identity {
	t.Helper()
	id, err := h.svc.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password, ConfirmPassword: password})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return id
}
