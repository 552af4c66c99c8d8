// Package repository declares the storage contract the services depend on.
//
// The services never see SQL. They receive a Store, ask it for the record
// repositories, and wrap every read-check-write sequence in WithinTx so the
// uniqueness and monotonic-price rules cannot be raced by a second caller.
package repository

import (
	"context"

	"github.com/sakif/qbay/internal/model"
)

// Page sizes for List. A limit of zero or less means DefaultListLimit.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize clamps Limit to [1, MaxListLimit], using DefaultListLimit for
// zero or less, and raises a negative Offset to zero.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// UserRepository stores User records. GetByID returns apperror.ErrNotFound
// for a missing id; FindByEmail returns an empty slice instead.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// ListingRepository stores Listing records with the same conventions as
// UserRepository.
type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	FindByTitle(ctx context.Context, title string) ([]model.Listing, error)
	List(ctx context.Context, opts ListOptions) ([]model.Listing, error)
	Update(ctx context.Context, listing *model.Listing) error
}

// Repos is the set of repositories bound to one transaction.
type Repos struct {
	Users    UserRepository
	Listings ListingRepository
}

// Store hands out repositories. Users and Listings run each call on its own;
// WithinTx runs fn against repositories bound to a single transaction that
// commits when fn returns nil and rolls back otherwise.
type Store interface {
	Users() UserRepository
	Listings() ListingRepository
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
