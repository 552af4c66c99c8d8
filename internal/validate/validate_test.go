package validate

import (
	"strings"
	"testing"
	"time"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"test0@test.com", true},
		{"first.last@example.co.uk", true},
		{"user+tag@sub.domain.org", true},
		{"o'brien@example.ca", true},
		{"", false},
		{"plainaddress", false},
		{"@example.com", false},
		{"user@", false},
		{"user@localhost", false},
		{"user@example.c", false},
		{"user@example.c0m", false},
		{".user@example.com", false},
		{"user.@example.com", false},
		{"us..er@example.com", false},
		{"user@-example.com", false},
		{"user name@example.com", false},
		{" user@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := Email(tt.email); got != tt.want {
				t.Errorf("Email(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"all three classes, 6 chars", "Abc!23", true},
		{"long and complex", "tmp!USER123", true},
		{"too short", "Ab!1", false},
		{"five chars", "Abc!2", false},
		{"no uppercase", "abc!23", false},
		{"no lowercase", "ABC!23", false},
		{"no punctuation", "Abc123", false},
		{"digits only", "123456", false},
		{"empty", "", false},
		{"space is not punctuation", "Abc 23", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Password(tt.password); got != tt.want {
				t.Errorf("Password(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

// Dropping any one character class from an otherwise valid password must
// make it fail, whatever else it contains.
func TestPassword_MissingClassAlwaysRejected(t *testing.T) {
	lower := "abcdefgh"
	upper := "ABCDEFGH"

	for _, p := range punctuation {
		punct := strings.Repeat(string(p), 3)

		withoutLower := upper + punct
		withoutUpper := lower + punct
		withoutPunct := lower + upper

		for _, pw := range []string{withoutLower, withoutUpper, withoutPunct} {
			if Password(pw) {
				t.Errorf("Password(%q) = true, want false", pw)
			}
		}

		if !Password(lower[:2] + upper[:2] + punct) {
			t.Errorf("Password(%q) = false, want true", lower[:2]+upper[:2]+punct)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"u0", true},
		{"The Title", true},
		{"The Title62", true},
		{"ti tle2", true},
		{"A", true},
		{"", false},
		{" The Title62", false},
		{"The Title62 ", false},
		{" ", false},
		{"The Tit_le", false},
		{"%", false},
		{"asd#f12!3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Name(tt.name); got != tt.want {
				t.Errorf("Name(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNameLength(t *testing.T) {
	tests := []struct {
		length int
		want   bool
	}{
		{2, false},
		{3, true},
		{10, true},
		{19, true},
		{20, false},
	}

	for _, tt := range tests {
		s := strings.Repeat("a", tt.length)
		if got := NameLength(s); got != tt.want {
			t.Errorf("NameLength(len=%d) = %v, want %v", tt.length, got, tt.want)
		}
	}
}

func TestTitleLength(t *testing.T) {
	tests := []struct {
		length int
		want   bool
	}{
		{0, false},
		{1, true},
		{80, true},
		{81, false},
	}

	for _, tt := range tests {
		s := strings.Repeat("x", tt.length)
		if got := TitleLength(s); got != tt.want {
			t.Errorf("TitleLength(len=%d) = %v, want %v", tt.length, got, tt.want)
		}
	}
}

func TestDescriptionLength(t *testing.T) {
	tests := []struct {
		length int
		want   bool
	}{
		{19, false},
		{20, true},
		{2000, true},
		{2001, false},
	}

	for _, tt := range tests {
		s := strings.Repeat("x", tt.length)
		if got := DescriptionLength(s); got != tt.want {
			t.Errorf("DescriptionLength(len=%d) = %v, want %v", tt.length, got, tt.want)
		}
	}
}

func TestDescriptionLength_CountsCharactersNotBytes(t *testing.T) {
	// 20 two-byte runes: 40 bytes but 20 characters.
	s := strings.Repeat("é", 20)
	if !DescriptionLength(s) {
		t.Errorf("DescriptionLength(%d runes) = false, want true", 20)
	}
}

func TestDescriptionLongerThanTitle(t *testing.T) {
	tests := []struct {
		name        string
		description string
		title       string
		want        bool
	}{
		{"longer", strings.Repeat("x", 25), strings.Repeat("x", 23), true},
		{"equal", strings.Repeat("x", 23), strings.Repeat("y", 23), false},
		{"shorter", strings.Repeat("x", 21), strings.Repeat("z", 23), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescriptionLongerThanTitle(tt.description, tt.title); got != tt.want {
				t.Errorf("DescriptionLongerThanTitle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		price float64
		want  bool
	}{
		{10, true},
		{10000, true},
		{50, true},
		{9.99, false},
		{10000.01, false},
		{0, false},
		{-20, false},
	}

	for _, tt := range tests {
		if got := Price(tt.price); got != tt.want {
			t.Errorf("Price(%v) = %v, want %v", tt.price, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		date time.Time
		want bool
	}{
		{time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2022, 10, 6, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), false},
		// Time of day does not push a boundary day inside the range.
		{time.Date(2021, 1, 2, 23, 59, 59, 0, time.UTC), false},
		{time.Date(2025, 1, 1, 23, 59, 59, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format(time.RFC3339), func(t *testing.T) {
			if got := Date(tt.date); got != tt.want {
				t.Errorf("Date(%v) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestPostalCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"A1A 1A1", true},
		{"B2B 2B2", true},
		{"k7l 3n6", true},
		{"", false},
		{"A1A A1A", false},
		{"A1A1A1", false},
		{"A1A #A1", false},
		{"B2? 2B2", false},
		{"A1A  1A1", false},
		{"1A1 A1A", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := PostalCode(tt.code); got != tt.want {
				t.Errorf("PostalCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	in := time.Date(2022, 10, 6, 22, 30, 0, 0, loc)

	got := Day(in)
	want := time.Date(2022, 10, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day(%v) = %v, want %v", in, got, want)
	}
}
