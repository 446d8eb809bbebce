package months

import (
	"errors"
	"fmt"
)

// MonthsPerYear is the size of the calendar vocabulary
const MonthsPerYear = 12

// Names holds the canonical month labels in calendar order
var Names = [MonthsPerYear]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var (
	ErrUnknownMonth  = errors.New("unknown month")
	ErrNegativeCount = errors.New("month count must not be negative")
)

// UnknownMonthError reports a label outside the canonical 12
type UnknownMonthError struct {
	Name string
}

func (e *UnknownMonthError) Error() string {
	return fmt.Sprintf("unknown month %q", e.Name)
}

func (e *UnknownMonthError) Unwrap() error {
	return ErrUnknownMonth
}

// IndexOf returns the zero-based position of name in the calendar
func IndexOf(name string) (int, error) {
	for i, m := range Names {
		if m == name {
			return i, nil
		}
	}
	return -1, &UnknownMonthError{Name: name}
}

// Valid reports whether name is one of the canonical labels
func Valid(name string) bool {
	_, err := IndexOf(name)
	return err == nil
}

// NextNames returns the n labels that follow last, wrapping from December to January.
func NextNames(last string, n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}

	idx, err := IndexOf(last)
	if err != nil {
		return nil, err
	}

	next := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		next = append(next, Names[(idx+i)%MonthsPerYear])
	}
	return next, nil
}
