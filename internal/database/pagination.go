package database

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is the window a listing should return. Number is 1-based.
type PageRequest struct {
	Number int
	Size   int
}

// Page is one window of a listing plus what is needed to navigate it.
type Page[T any] struct {
	Items       []T
	Total       int64
	Number      int
	Size        int
	NumPages    int
	HasNext     bool
	HasPrevious bool
}

// ParsePageNumber accepts the raw query value; anything unparsable is page 1.
func ParsePageNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParsePageSize falls back to def and never exceeds MaxPageSize.
func ParsePageSize(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// newPage clamps the requested window against total. An empty listing still
// has one (empty) page, and out-of-range numbers land on the nearest page.
func newPage[T any](req PageRequest, total int64) Page[T] {
	size := req.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}

	number := req.Number
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	return Page[T]{
		Items:       []T{},
		Total:       total,
		Number:      number,
		Size:        size,
		NumPages:    numPages,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}

func (p Page[T]) offset() int {
	return (p.Number - 1) * p.Size
}
