// Package match filters catalog records against an aggregate score and
// slices the result into pages.
package match

import (
	"strconv"
	"strings"

	"github.com/rraild/vuzbot/internal/catalog"
)

// Mode selects which seat allocation a search targets.
type Mode int

const (
	// ModeBudget matches against the budget-funded threshold.
	ModeBudget Mode = iota
	// ModePaid matches against the paid-seat threshold.
	ModePaid
)

func (m Mode) String() string {
	if m == ModePaid {
		return "paid"
	}
	return "budget"
}

// unknownPrefix marks a threshold the scraper could not determine.
const unknownPrefix = "от ?"

// ParseThreshold extracts the numeric threshold from raw scraped text such
// as "от 270" or "от 70 баллов". The second result is false when the record
// must be excluded: empty text, the unknown placeholder, or any token
// structure that does not parse. Dirty source data is expected; parse
// failures are swallowed, not surfaced.
func ParseThreshold(raw string) (float64, bool) {
	if raw == "" || strings.HasPrefix(raw, unknownPrefix) {
		return 0, false
	}
	parts := strings.Split(raw, " ")
	if len(parts) < 2 || parts[1] == "-" {
		return 0, false
	}
	value, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// thresholdText picks the raw threshold field for the mode.
func thresholdText(rec catalog.Institution, mode Mode) string {
	if mode == ModePaid {
		return rec.PaidScore
	}
	return rec.BudgetScore
}

// Match returns the records whose threshold for the given mode is met by
// aggregate. Records with absent or unparseable thresholds are skipped.
// Input ordering is preserved; the output is never re-sorted. Callers must
// ensure the aggregate exists before invoking Match.
func Match(aggregate float64, mode Mode, records []catalog.Institution) []catalog.Institution {
	var out []catalog.Institution
	for _, rec := range records {
		threshold, ok := ParseThreshold(thresholdText(rec, mode))
		if !ok {
			continue
		}
		if aggregate >= threshold {
			out = append(out, rec)
		}
	}
	return out
}

// PageSize is the fixed number of records per result page.
const PageSize = 5

// Page is one window of a match result.
type Page[T any] struct {
	Items   []T
	Index   int
	HasPrev bool
	HasNext bool
}

// Paginate returns the index-th window of results. An out-of-range or
// negative index is clamped to the nearest valid page: navigation tokens come
// from buttons the bot itself rendered, so a stale token after a new search
// degrades to the closest page instead of erroring.
func Paginate[T any](results []T, index int) Page[T] {
	lastPage := 0
	if len(results) > 0 {
		lastPage = (len(results) - 1) / PageSize
	}
	if index < 0 {
		index = 0
	}
	if index > lastPage {
		index = lastPage
	}

	start := index * PageSize
	end := start + PageSize
	if start > len(results) {
		start = len(results)
	}
	if end > len(results) {
		end = len(results)
	}

	return Page[T]{
		Items:   results[start:end],
		Index:   index,
		HasPrev: index > 0,
		HasNext: (index+1)*PageSize < len(results),
	}
}
