// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tei

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoClosingBracket is returned when a content line has no ']' ending its locator.
var ErrNoClosingBracket = errors.New("cannot find closing bracket")

// LineError ties a per-line parse failure to its 1-based input line number.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%v on line %d", e.Err, e.Line)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Locator is the page/line reference prefixing a source line, e.g. [12b.4].
type Locator struct {
	// Page is the page label, e.g. "12b".
	Page string

	// Line is the line label after the first '.', empty for whole-page locators.
	Line string
}

func (l Locator) String() string {
	if l.Line == "" {
		return "[" + l.Page + "]"
	}
	return "[" + l.Page + "." + l.Line + "]"
}

// ParseLocator splits a raw line into its locator and the text after the
// first ']'. The opening bracket is assumed to be the first character and is
// not checked.
func ParseLocator(line string) (Locator, string, error) {
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return Locator{}, "", ErrNoClosingBracket
	}

	var inner string
	if end > 0 {
		inner = line[1:end]
	}

	loc := Locator{Page: inner}
	if page, lineNum, ok := strings.Cut(inner, "."); ok {
		loc.Page = page
		loc.Line = lineNum
	}
	return loc, line[end+1:], nil
}
