package book

import "errors"

// Sentinel errors for the book service layer.
var (
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateISBN = errors.New("isbn already registered")
	ErrMissingID     = errors.New("book id is required")
)
