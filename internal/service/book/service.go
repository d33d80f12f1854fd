package book

import (
	"context"
	"fmt"

	"github.com/ignite/library-api/internal/domain"
)

// Service implements catalog business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a book service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single book by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Book, error) {
	return s.repo.Get(ctx, id)
}

// GetByISBN returns the book registered under the given ISBN.
func (s *Service) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return s.repo.GetByISBN(ctx, isbn)
}

// CreateInput holds the fields for registering a new book.
type CreateInput struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// Create validates and persists a new book. Returns ErrDuplicateISBN if the
// ISBN is already registered.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Book, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.Author == "" {
		return nil, fmt.Errorf("author is required")
	}
	if input.ISBN == "" {
		return nil, fmt.Errorf("isbn is required")
	}

	b := &domain.Book{
		Title:  input.Title,
		Author: input.Author,
		ISBN:   input.ISBN,
	}

	id, err := s.repo.Create(ctx, b)
	if err != nil {
		return nil, err
	}
	b.ID = id
	return b, nil
}

// Update persists title/author changes to an existing book. The ISBN is
// immutable and ignored even if set on b.
func (s *Service) Update(ctx context.Context, b *domain.Book) (*domain.Book, error) {
	if b == nil || b.ID == "" {
		return nil, ErrMissingID
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, b.ID)
}

// Delete removes a book from the catalog.
func (s *Service) Delete(ctx context.Context, b *domain.Book) error {
	if b == nil || b.ID == "" {
		return ErrMissingID
	}
	return s.repo.Delete(ctx, b.ID)
}

// Search returns books matching the filter plus the total match count.
func (s *Service) Search(ctx context.Context, f SearchFilter, page Page) ([]domain.Book, int, error) {
	return s.repo.Search(ctx, f, page)
}
