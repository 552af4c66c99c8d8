package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is how calendar dates are written in JSON and in the database.
const DateLayout = "2006-01-02"

// Listing is a product offered for sale by exactly one User.
//
// OwnerID is fixed at creation. LastModified is a calendar date (no time of
// day) that moves forward on every successful create or update.
type Listing struct {
	ID           string    `json:"id"           db:"id"`
	Title        string    `json:"title"        db:"title"`
	Description  string    `json:"description"  db:"description"`
	Price        float64   `json:"price"        db:"price"`
	LastModified Date      `json:"lastModified" db:"last_modified"`
	OwnerID      string    `json:"ownerId"      db:"owner_id"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
}

// Date is a calendar day. It wraps time.Time so JSON carries "2022-10-06"
// instead of a full RFC 3339 timestamp.
type Date struct {
	time.Time
}

// NewDate returns the calendar day of t at midnight UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("model: parsing date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("model: date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
