package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/qbay/internal/apperror"
	"github.com/sakif/qbay/internal/auth"
	"github.com/sakif/qbay/internal/model"
	"github.com/sakif/qbay/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore keeps users and listings in maps. WithinTx snapshots both maps
// and restores them when fn fails, so service tests can observe rollback
// without a database. Setting failWith makes every repository call return
// that error, simulating a storage fault.

type fakeStore struct {
	mu       sync.Mutex
	users    map[string]model.User
	listings map[string]model.Listing
	seq      int
	failWith error
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]model.User),
		listings: make(map[string]model.Listing),
	}
}

func (s *fakeStore) Users() repository.UserRepository       { return fakeUsers{s} }
func (s *fakeStore) Listings() repository.ListingRepository { return fakeListings{s} }

func (s *fakeStore) WithinTx(_ context.Context, fn func(r repository.Repos) error) error {
	s.mu.Lock()
	users := make(map[string]model.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	listings := make(map[string]model.Listing, len(s.listings))
	for k, v := range s.listings {
		listings[k] = v
	}
	s.mu.Unlock()

	if err := fn(repository.Repos{Users: s.Users(), Listings: s.Listings()}); err != nil {
		s.mu.Lock()
		s.users, s.listings = users, listings
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

type fakeUsers struct{ s *fakeStore }

func (f fakeUsers) Create(_ context.Context, user *model.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return f.s.failWith
	}
	user.ID = f.s.nextID("user")
	f.s.users[user.ID] = *user
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	u, ok := f.s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) ([]model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	var out []model.User
	for _, u := range f.s.users {
		if u.Email == email {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f fakeUsers) Update(_ context.Context, user *model.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return f.s.failWith
	}
	if _, ok := f.s.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	f.s.users[user.ID] = *user
	return nil
}

type fakeListings struct{ s *fakeStore }

func (f fakeListings) Create(_ context.Context, listing *model.Listing) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return f.s.failWith
	}
	listing.ID = f.s.nextID("listing")
	f.s.listings[listing.ID] = *listing
	return nil
}

func (f fakeListings) GetByID(_ context.Context, id string) (*model.Listing, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	l, ok := f.s.listings[id]
	if !ok {
		return nil, apperror.NotFound("listing", id)
	}
	return &l, nil
}

func (f fakeListings) FindByTitle(_ context.Context, title string) ([]model.Listing, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	var out []model.Listing
	for _, l := range f.s.listings {
		if l.Title == title {
			out = append(out, l)
		}
	}
	return out, nil
}

// List orders by ID descending; IDs are sequential, so that is newest first.
func (f fakeListings) List(_ context.Context, opts repository.ListOptions) ([]model.Listing, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	out := make([]model.Listing, 0, len(f.s.listings))
	for _, l := range f.s.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return seqOf(out[i].ID) > seqOf(out[j].ID) })

	if opts.Offset >= len(out) {
		return []model.Listing{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f fakeListings) Update(_ context.Context, listing *model.Listing) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return f.s.failWith
	}
	if _, ok := f.s.listings[listing.ID]; !ok {
		return apperror.NotFound("listing", listing.ID)
	}
	f.s.listings[listing.ID] = *listing
	return nil
}

func seqOf(id string) int {
	n, _ := strconv.Atoi(id[strings.LastIndex(id, "-")+1:])
	return n
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAccountService(t *testing.T) (*AccountService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewAccountService(store, auth.NewPasswordService(bcrypt.MinCost), testLogger()), store
}

func newTestServices(t *testing.T) (*AccountService, *ListingService, *fakeStore) {
	t.Helper()
	accounts, store := newTestAccountService(t)
	listings := NewListingService(store, accounts, testLogger())
	return accounts, listings, store
}
