package version

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date limits. No calendar check is made: 2019-02-31 is a valid Date.
const (
	MaxYear  = 2999
	MaxMonth = 12
	MaxDay   = 31
)

// Date is the build date of a nightly toolchain.
type Date struct {
	Year  uint16
	Month uint8
	Day   uint8
}

// DateError reports a malformed YYYY-MM-DD literal.
type DateError struct {
	Text   string
	Reason string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Text, e.Reason)
}

// ParseDate parses a YYYY-MM-DD literal.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, &DateError{Text: s, Reason: "want YYYY-MM-DD"}
	}
	var fields [3]uint64
	for i, name := range []string{"year", "month", "day"} {
		n, err := strconv.ParseUint(parts[i], 10, 64)
		if err != nil {
			return Date{}, &DateError{Text: s, Reason: name + " is not a number"}
		}
		fields[i] = n
	}
	return newDate(s, fields[0], fields[1], fields[2])
}

// NewDate validates the components and builds a Date.
func NewDate(year, month, day uint64) (Date, error) {
	return newDate(fmt.Sprintf("%04d-%02d-%02d", year, month, day), year, month, day)
}

func newDate(text string, year, month, day uint64) (Date, error) {
	switch {
	case year > MaxYear:
		return Date{}, &DateError{Text: text, Reason: "year out of range"}
	case month > MaxMonth:
		return Date{}, &DateError{Text: text, Reason: "month out of range"}
	case day > MaxDay:
		return Date{}, &DateError{Text: text, Reason: "day out of range"}
	}
	return Date{Year: uint16(year), Month: uint8(month), Day: uint8(day)}, nil
}

// MustDate parses a date or panics. Use only for constants/tests.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current UTC date.
func Today() Date {
	now := time.Now().UTC()
	return Date{Year: uint16(now.Year()), Month: uint8(now.Month()), Day: uint8(now.Day())}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Compare returns -1, 0 or 1 ordering by year, month, then day.
func (d Date) Compare(other Date) int {
	if c := cmp.Compare(d.Year, other.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, other.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, other.Day)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}
