package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/garyellow/storebot/internal/errors"
)

// MaxSizes bounds how many sizes a product may carry.
const MaxSizes = 50

// StockErrorKind classifies why a stock line was rejected.
type StockErrorKind string

// Stock error kinds
const (
	StockWrongCount StockErrorKind = "wrong_count"
	StockNotNumber  StockErrorKind = "not_number"
	StockNegative   StockErrorKind = "negative"
)

// StockError is the structured failure of ParseStock.
type StockError struct {
	Kind     StockErrorKind
	Expected int
	Got      int
	Token    string
}

func (e *StockError) Error() string {
	switch e.Kind {
	case StockWrongCount:
		return fmt.Sprintf("stock: expected %d numbers, got %d", e.Expected, e.Got)
	case StockNotNumber:
		return fmt.Sprintf("stock: %q is not a whole number", e.Token)
	default:
		return fmt.Sprintf("stock: %q is negative", e.Token)
	}
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *StockError) Unwrap() error { return errors.ErrInvalidInput }

var stockSeparators = func(r rune) bool {
	return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == ';' || r == '،'
}

// ParseStock parses exactly expected non-negative integers separated by
// commas or whitespace.
func ParseStock(text string, expected int) ([]int, error) {
	fields := strings.FieldsFunc(text, stockSeparators)
	if len(fields) != expected {
		return nil, &StockError{Kind: StockWrongCount, Expected: expected, Got: len(fields)}
	}
	counts := make([]int, len(fields))
	for i, f := range fields {
		n, err := parseCount(f)
		if err != nil {
			return nil, err
		}
		counts[i] = n
	}
	return counts, nil
}

// ParseSingleStock parses one non-negative integer.
func ParseSingleStock(text string) (int, error) {
	counts, err := ParseStock(text, 1)
	if err != nil {
		return 0, err
	}
	return counts[0], nil
}

func parseCount(token string) (int, error) {
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, &StockError{Kind: StockNotNumber, Token: token}
	}
	if n < 0 {
		return 0, &StockError{Kind: StockNegative, Token: token}
	}
	return n, nil
}

// ParseList splits a comma/newline separated list, trims entries and
// drops empty and case-insensitive duplicate entries, keeping first spelling.
func ParseList(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';' || r == '،'
	})
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		key := strings.ToLower(p)
		if p == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// SizeRange is a numeric "start-end" size range awaiting a step.
type SizeRange struct {
	Start int
	End   int
}

// SizeInput is the parsed answer to the sizes question: either an explicit
// list or a range.
type SizeInput struct {
	List  []string
	Range *SizeRange
}

var sizeRangePattern = regexp.MustCompile(`^\s*(\d{1,4})\s*-\s*(\d{1,4})\s*$`)

// ParseSizes parses "S, M, L" into a list or "36-42" into a range.
func ParseSizes(text string) (SizeInput, error) {
	if m := sizeRangePattern.FindStringSubmatch(text); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if start > end {
			return SizeInput{}, errors.NewValidationError("sizes", "range start is after range end")
		}
		return SizeInput{Range: &SizeRange{Start: start, End: end}}, nil
	}

	list := ParseList(text)
	if len(list) == 0 {
		return SizeInput{}, errors.NewValidationError("sizes", "empty")
	}
	if len(list) > MaxSizes {
		return SizeInput{}, errors.NewValidationError("sizes", "too many sizes")
	}
	return SizeInput{List: list}, nil
}

// ParseStep parses a positive integer size step.
func ParseStep(text string) (int, error) {
	step, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || step <= 0 {
		return 0, errors.NewValidationError("step", "must be a positive whole number")
	}
	return step, nil
}

// ExpandRange returns start, start+step, ... up to and including end when reachable.
func ExpandRange(r SizeRange, step int) ([]string, error) {
	if step <= 0 {
		return nil, errors.NewValidationError("step", "must be positive")
	}
	var sizes []string
	for v := r.Start; v <= r.End; v += step {
		sizes = append(sizes, strconv.Itoa(v))
		if len(sizes) > MaxSizes {
			return nil, errors.NewValidationError("sizes", "too many sizes")
		}
	}
	if len(sizes) == 0 {
		return nil, errors.NewValidationError("sizes", "empty range")
	}
	return sizes, nil
}

// ParseIndex resolves a 1-based menu choice against n items.
// Returns the 0-based index.
func ParseIndex(text string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

// ValidateName trims text and checks its length in runes.
func ValidateName(field, text string, maxRunes int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.NewValidationError(field, "empty")
	}
	if utf8.RuneCountInString(text) > maxRunes {
		return "", errors.NewValidationError(field, fmt.Sprintf("longer than %d characters", maxRunes))
	}
	return text, nil
}
