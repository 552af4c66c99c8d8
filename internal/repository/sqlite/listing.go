package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/qbay/internal/apperror"
	"github.com/sakif/qbay/internal/model"
	"github.com/sakif/qbay/internal/repository"
)

// compile-time check that *ListingDB implements repository.ListingRepository
var _ repository.ListingRepository = (*ListingDB)(nil)

// ListingDB reads and writes the listings table.
type ListingDB struct {
	q querier
}

const listingColumns = `id, title, description, price, last_modified, owner_id, created_at`

// Create inserts a listing and assigns its ID. LastModified is stored as
// given; the service decides what date a new listing carries. A duplicate
// title returns apperror.ErrConflict.
func (l *ListingDB) Create(ctx context.Context, listing *model.Listing) error {
	listing.ID = xid.New().String()
	listing.CreatedAt = time.Now().UTC()

	_, err := l.q.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		listing.ID,
		listing.Title,
		listing.Description,
		listing.Price,
		listing.LastModified.String(),
		listing.OwnerID,
		listing.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("listing", "title", listing.Title)
		}
		return fmt.Errorf("sqlite: inserting listing (title=%q): %w", listing.Title, err)
	}

	return nil
}

// GetByID returns apperror.ErrNotFound if the listing does not exist.
func (l *ListingDB) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := scanListing(l.q.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("listing", id)
		}
		return nil, fmt.Errorf("sqlite: getting listing %s: %w", id, err)
	}
	return listing, nil
}

// FindByTitle returns the listings whose title matches exactly.
func (l *ListingDB) FindByTitle(ctx context.Context, title string) ([]model.Listing, error) {
	rows, err := l.q.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE title = ?`, title,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding listings by title: %w", err)
	}
	return collectListings(rows, 0)
}

// List returns listings newest first, with opts normalized first.
func (l *ListingDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Listing, error) {
	opts = opts.Normalize()

	// xids sort by creation time, so id breaks ties within the same instant.
	rows, err := l.q.QueryContext(ctx,
		`SELECT `+listingColumns+`
		 FROM listings
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing listings: %w", err)
	}
	return collectListings(rows, opts.Limit)
}

// Update writes title, description, price and last_modified. Owner and ID
// are not part of the SET clause, so they cannot change through here.
func (l *ListingDB) Update(ctx context.Context, listing *model.Listing) error {
	result, err := l.q.ExecContext(ctx,
		`UPDATE listings
		 SET title = ?, description = ?, price = ?, last_modified = ?
		 WHERE id = ?`,
		listing.Title,
		listing.Description,
		listing.Price,
		listing.LastModified.String(),
		listing.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("listing", "title", listing.Title)
		}
		return fmt.Errorf("sqlite: updating listing %s: %w", listing.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("listing", listing.ID)
	}

	return nil
}

func collectListings(rows *sql.Rows, capacity int) ([]model.Listing, error) {
	defer rows.Close()

	listings := make([]model.Listing, 0, capacity)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning listing row: %w", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating listings: %w", err)
	}

	return listings, nil
}

func scanListing(row rowScanner) (*model.Listing, error) {
	var (
		listing      model.Listing
		lastModified string
	)
	err := row.Scan(
		&listing.ID,
		&listing.Title,
		&listing.Description,
		&listing.Price,
		&lastModified,
		&listing.OwnerID,
		&listing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	listing.LastModified, err = model.ParseDate(lastModified)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}
