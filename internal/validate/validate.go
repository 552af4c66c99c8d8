// Package validate holds the field rules for users and listings.
//
// Every function here is a pure predicate: it looks at one value (or a pair
// of values) and reports whether the rule holds. Nothing is trimmed,
// normalised or stored. The service layer decides which rules apply to which
// operation and turns a failed predicate into an apperror.
//
// Lengths are counted in characters (runes), not bytes, so "café" is 4 long.
package validate

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	MinNameLength        = 3
	MaxNameLength        = 19
	MinTitleLength       = 1
	MaxTitleLength       = 80
	MinDescriptionLength = 20
	MaxDescriptionLength = 2000
	MinPasswordLength    = 6
	MinPrice             = 10.0
	MaxPrice             = 10000.0
)

// punctuation is the ASCII punctuation set a password must draw from.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	// Listing dates must fall strictly between these two days.
	EarliestDate = time.Date(2021, time.January, 2, 0, 0, 0, 0, time.UTC)
	LatestDate   = time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
)

var (
	// emailPattern is a practical subset of the RFC 5322 addr-spec:
	// dot-atom local part, dotted domain, alphabetic TLD of 2+ letters.
	emailPattern = regexp.MustCompile(
		"^[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+(\\.[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+)*" +
			"@([A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?\\.)+[A-Za-z]{2,}$",
	)

	// namePattern: letters, digits and spaces, but never a space at either end.
	namePattern = regexp.MustCompile(`^[\p{L}\p{N}]([\p{L}\p{N} ]*[\p{L}\p{N}])?$`)

	postalCodePattern = regexp.MustCompile(`^[A-Za-z][0-9][A-Za-z] [0-9][A-Za-z][0-9]$`)
)

// Email reports whether s looks like a deliverable address.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Password reports whether s is at least MinPasswordLength characters and
// mixes lowercase, uppercase and punctuation.
func Password(s string) bool {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return false
	}

	var lower, upper, punct bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune(punctuation, r):
			punct = true
		}
	}
	return lower && upper && punct
}

// Name checks the shape shared by usernames and listing titles.
func Name(s string) bool {
	return namePattern.MatchString(s)
}

// NameLength checks the username length bounds.
func NameLength(s string) bool {
	return between(utf8.RuneCountInString(s), MinNameLength, MaxNameLength)
}

func TitleLength(s string) bool {
	return between(utf8.RuneCountInString(s), MinTitleLength, MaxTitleLength)
}

func DescriptionLength(s string) bool {
	return between(utf8.RuneCountInString(s), MinDescriptionLength, MaxDescriptionLength)
}

// DescriptionLongerThanTitle is strict: equal lengths fail.
func DescriptionLongerThanTitle(description, title string) bool {
	return utf8.RuneCountInString(description) > utf8.RuneCountInString(title)
}

// Price checks the inclusive listing price range.
func Price(p float64) bool {
	return p >= MinPrice && p <= MaxPrice
}

// Date reports whether d's calendar day lies strictly between EarliestDate
// and LatestDate. The time of day and location of d are ignored.
func Date(d time.Time) bool {
	day := Day(d)
	return day.After(EarliestDate) && day.Before(LatestDate)
}

// PostalCode checks the Canadian "A1A 1A1" format.
func PostalCode(s string) bool {
	return postalCodePattern.MatchString(s)
}

// Day truncates t to midnight UTC of its own calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func between(n, lo, hi int) bool {
	return n >= lo && n <= hi
}
