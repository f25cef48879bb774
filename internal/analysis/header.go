package analysis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrHeaderRowRange is matched by every RangeError.
var ErrHeaderRowRange = errors.New("header row out of range")

// ErrHeaderRowInput reports a custom header row that is not a positive number.
var ErrHeaderRowInput = errors.New("Please enter a number 1 or higher.")

// RangeError reports a header row index outside the table. Index is 0-based;
// the message names the valid range in 1-based terms.
type RangeError struct {
	Index int
	Rows  int
}

func (e *RangeError) Error() string {
	if e.Rows == 0 {
		return "Table has no rows."
	}
	return fmt.Sprintf("Row number must be between 1 and %d.", e.Rows)
}

func (e *RangeError) Is(target error) bool { return target == ErrHeaderRowRange }

// ValidateHeaderRow checks 0 <= index < len(t).
func ValidateHeaderRow(t RawTable, index int) error {
	if index < 0 || index >= len(t) {
		return &RangeError{Index: index, Rows: len(t)}
	}
	return nil
}

// ParseHeaderRowInput converts a 1-based row number typed by the user into a
// 0-based index. Empty input selects row 0.
func ParseHeaderRowInput(input string, rows int) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(leadingInt(s))
	if err != nil || n < 1 {
		return 0, ErrHeaderRowInput
	}
	if n > rows {
		return 0, &RangeError{Index: n - 1, Rows: rows}
	}
	return n - 1, nil
}

// leadingInt keeps an optional sign and the digits that follow it, so "3rd"
// reads as 3 the way a lenient integer prompt would.
func leadingInt(s string) string {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return s
	}
	return s[:end]
}

// Headers returns the labels of row index, or nil when the index is invalid.
func Headers(t RawTable, index int) []string {
	if index < 0 || index >= len(t) {
		return nil
	}
	return t[index].Strings()
}

// DataRows returns the rows after the header row.
func DataRows(t RawTable, index int) []Row {
	if index < 0 || index >= len(t) {
		return nil
	}
	return t[index+1:]
}

// ColumnIndex returns the first column labelled name, or -1.
// Duplicate labels resolve to their first occurrence.
func ColumnIndex(headers []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}
