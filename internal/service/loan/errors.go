package loan

import "errors"

// Sentinel errors for the loan service layer.
var (
	ErrNotFound     = errors.New("loan not found")
	ErrBookNotFound = errors.New("no book found for the given isbn")
	ErrBookLoaned   = errors.New("book already loaned")
)
