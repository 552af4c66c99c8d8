package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/qbay/internal/apperror"
	"github.com/sakif/qbay/internal/model"
	"github.com/sakif/qbay/internal/repository"
	"github.com/sakif/qbay/internal/validate"
)

const (
	DefaultListLimit = repository.DefaultListLimit
	MaxListLimit     = repository.MaxListLimit
)

// OwnerResolver looks up the account that will own a new listing.
// *AccountService satisfies it.
type OwnerResolver interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

var _ OwnerResolver = (*AccountService)(nil)

// ListingUpdate carries the fields an owner may change. A nil field is left
// as it is. The last-modified date is not settable; every successful update
// sets it to today.
type ListingUpdate struct {
	Title       *string
	Description *string
	Price       *float64
}

// ListingService creates, updates and reads listings.
type ListingService struct {
	store  repository.Store
	owners OwnerResolver
	logger *slog.Logger

	// now is swapped in tests to pin "today".
	now func() time.Time
}

func NewListingService(store repository.Store, owners OwnerResolver, logger *slog.Logger) *ListingService {
	return &ListingService{
		store:  store,
		owners: owners,
		logger: logger,
		now:    time.Now,
	}
}

// Create validates and stores a new listing owned by ownerID.
//
// CHECK ORDER (first failure wins):
//  1. title shape, then title length
//  2. description length, then description longer than title
//  3. price range
//  4. date range
//  5. owner exists (not found) and has an email (validation)
//  6. title not already taken (conflict), inside the transaction
//
// The listing's last-modified date is the given date.
func (s *ListingService) Create(ctx context.Context, title, description string, price float64, date time.Time, ownerID string) (*model.Listing, error) {
	if err := checkTitle(title); err != nil {
		return nil, err
	}
	if err := checkDescription(description); err != nil {
		return nil, err
	}
	if !validate.DescriptionLongerThanTitle(description, title) {
		return nil, errDescriptionTooShortForTitle()
	}
	if err := checkPrice(price); err != nil {
		return nil, err
	}
	if !validate.Date(date) {
		return nil, apperror.ValidationFailed("lastModified", fmt.Sprintf(
			"date must be after %s and before %s",
			validate.EarliestDate.Format(model.DateLayout), validate.LatestDate.Format(model.DateLayout)))
	}

	// Resolved before the transaction opens: the owner lookup goes through
	// the account service, which uses its own connection.
	owner, err := s.owners.GetUser(ctx, ownerID)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("resolving listing owner: %w", err)
	}
	if owner.Email == "" {
		return nil, apperror.ValidationFailed("owner", "listing owner must have an email address")
	}

	listing := &model.Listing{
		Title:        title,
		Description:  description,
		Price:        price,
		LastModified: model.NewDate(date),
		OwnerID:      owner.ID,
	}

	err = s.store.WithinTx(ctx, func(r repository.Repos) error {
		existing, err := r.Listings.FindByTitle(ctx, title)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperror.Conflict("listing", "title", title)
		}
		return r.Listings.Create(ctx, listing)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error("failed to create listing",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	s.logger.Info("listing created",
		slog.String("id", listing.ID),
		slog.String("owner", listing.OwnerID),
	)
	return listing, nil
}

// Update applies upd to listing listingID on behalf of callerID.
//
// The whole update runs in one transaction and is all-or-nothing: the
// listing is loaded, the caller must be its owner, every supplied field is
// checked with the creation rules, the price may not go down, the resulting
// description must still be longer than the resulting title, and a changed
// title must not belong to another listing. Only when every check passes is
// anything written, and LastModified becomes today. An update that supplies
// no fields just refreshes LastModified.
func (s *ListingService) Update(ctx context.Context, callerID, listingID string, upd ListingUpdate) (*model.Listing, error) {
	var updated model.Listing

	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		current, err := r.Listings.GetByID(ctx, listingID)
		if err != nil {
			return err
		}
		if current.OwnerID != callerID {
			return apperror.Forbidden("only the owner can update this listing")
		}

		next := *current
		if upd.Title != nil {
			if err := checkTitle(*upd.Title); err != nil {
				return err
			}
			next.Title = *upd.Title
		}
		if upd.Description != nil {
			if err := checkDescription(*upd.Description); err != nil {
				return err
			}
			next.Description = *upd.Description
		}
		if upd.Price != nil {
			if err := checkPrice(*upd.Price); err != nil {
				return err
			}
			if *upd.Price < current.Price {
				return apperror.ValidationFailed("price",
					fmt.Sprintf("price cannot be lowered below %.2f", current.Price))
			}
			next.Price = *upd.Price
		}
		if !validate.DescriptionLongerThanTitle(next.Description, next.Title) {
			return errDescriptionTooShortForTitle()
		}

		if next.Title != current.Title {
			existing, err := r.Listings.FindByTitle(ctx, next.Title)
			if err != nil {
				return err
			}
			for _, other := range existing {
				if other.ID != current.ID {
					return apperror.Conflict("listing", "title", next.Title)
				}
			}
		}

		next.LastModified = model.NewDate(s.now())
		if err := r.Listings.Update(ctx, &next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error("failed to update listing",
			slog.String("id", listingID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating listing: %w", err)
	}

	s.logger.Info("listing updated",
		slog.String("id", updated.ID),
		slog.String("lastModified", updated.LastModified.String()),
	)
	return &updated, nil
}

// Get returns the listing with the given id, or apperror.ErrNotFound.
func (s *ListingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	if id == "" {
		return nil, apperror.NotFound("listing", id)
	}
	return s.store.Listings().GetByID(ctx, id)
}

// List returns listings newest first. limit is clamped to
// [1, MaxListLimit] with DefaultListLimit for zero or less; a negative
// offset is treated as zero.
func (s *ListingService) List(ctx context.Context, limit, offset int) ([]model.Listing, error) {
	opts := repository.ListOptions{Limit: limit, Offset: offset}.Normalize()

	listings, err := s.store.Listings().List(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list listings", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	return listings, nil
}

func checkTitle(title string) error {
	if !validate.Name(title) {
		return apperror.ValidationFailed("title",
			"title must contain only letters, digits and spaces, with no leading or trailing space")
	}
	if !validate.TitleLength(title) {
		return apperror.ValidationFailed("title", fmt.Sprintf(
			"title must be between %d and %d characters", validate.MinTitleLength, validate.MaxTitleLength))
	}
	return nil
}

func checkDescription(description string) error {
	if !validate.DescriptionLength(description) {
		return apperror.ValidationFailed("description", fmt.Sprintf(
			"description must be between %d and %d characters",
			validate.MinDescriptionLength, validate.MaxDescriptionLength))
	}
	return nil
}

func checkPrice(price float64) error {
	if !validate.Price(price) {
		return apperror.ValidationFailed("price", fmt.Sprintf(
			"price must be between %.0f and %.0f", validate.MinPrice, validate.MaxPrice))
	}
	return nil
}

func errDescriptionTooShortForTitle() error {
	return apperror.ValidationFailed("description", "description must be longer than the title")
}
