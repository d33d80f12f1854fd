package book

import (
	"context"

	"github.com/ignite/library-api/internal/domain"
)

// Repository defines the data access contract for books.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single book by id. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Book, error)

	// GetByISBN returns the book with the given ISBN, or ErrNotFound.
	GetByISBN(ctx context.Context, isbn string) (*domain.Book, error)

	// Create inserts a new book and returns its id. Returns ErrDuplicateISBN
	// if a book with the same ISBN already exists.
	Create(ctx context.Context, b *domain.Book) (string, error)

	// Update persists title and author changes. The ISBN column is never
	// touched. Returns ErrNotFound if the book doesn't exist.
	Update(ctx context.Context, b *domain.Book) error

	// Delete removes a book. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// Search returns books matching the filter plus the total match count,
	// ordered by id for stable paging.
	Search(ctx context.Context, f SearchFilter, page Page) ([]domain.Book, int, error)
}

// SearchFilter holds optional attribute filters for a book search. Empty
// fields match everything; non-empty fields match case-insensitively on any
// substring, and all set fields must match (AND).
type SearchFilter struct {
	Title  string
	Author string
	ISBN   string
}

// Page controls offset pagination for list queries.
type Page struct {
	Limit  int
	Offset int
}
