package core

import (
	"errors"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Layouts accepted by ParseDate, tried in order.
var dateLayouts = []string{
	dateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

type Date struct {
	time.Time
	// unparsable marks a non-empty input that matched no layout.
	unparsable bool
}

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrZeroDate    = errors.New("date cannot be zero")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// MonthStart returns the first day of the given month.
func MonthStart(year, month int) Date {
	return NewDate(year, month, 1)
}

// ParseDate parses a calendar date. Time components are dropped.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrZeroDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, ErrInvalidDate
}

// ParseOptionalDate returns a zero Date for empty or unparsable input.
func ParseOptionalDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		return Date{}
	}
	return d
}

// decodeDate is the lenient decoder behind JSON and YAML: empty input is a
// zero Date, garbage a zero Date that remembers it was garbage.
func decodeDate(s string) Date {
	d, err := ParseDate(s)
	if errors.Is(err, ErrInvalidDate) {
		return Date{unparsable: true}
	}
	return d
}

// Unparsable reports that the date was given but could not be read.
func (d Date) Unparsable() bool {
	return d.unparsable
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// FirstOfMonth truncates the date to day 1.
func (d Date) FirstOfMonth() Date {
	if d.IsZero() {
		return d
	}
	return MonthStart(d.Year(), d.Month())
}

// IsEmpty returns true for an unset optional date.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// OnOrBefore reports d <= other.
func (d Date) OnOrBefore(other Date) bool {
	return !d.Time.After(other.Time)
}

// OnOrAfter reports d >= other.
func (d Date) OnOrAfter(other Date) bool {
	return !d.Time.Before(other.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON is lenient: null, empty and unparsable strings yield a zero
// Date. Unparsable input is remembered, see Unparsable.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*d = Date{}
		return nil
	}
	*d = decodeDate(s)
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*d = decodeDate(s)
	return nil
}
