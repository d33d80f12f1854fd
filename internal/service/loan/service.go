package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/library-api/internal/domain"
	"github.com/ignite/library-api/internal/service/book"
)

// DefaultGraceDays is how long a loan may stay out before it counts as
// overdue when no other grace period is configured.
const DefaultGraceDays = 3

// BookResolver is the narrow slice of the book service the loan lifecycle
// needs: resolving an ISBN to a book at checkout time. Implementations
// return book.ErrNotFound when no book carries the ISBN; any other error
// is treated as a store failure.
type BookResolver interface {
	GetByISBN(ctx context.Context, isbn string) (*domain.Book, error)
}

// Service implements the loan lifecycle. It coordinates the book catalog
// and the loan repository; all mutation of loan rows goes through here.
// All public methods are safe for concurrent use if the underlying
// repository is concurrency-safe.
type Service struct {
	repo  Repository
	books BookResolver
	now   func() time.Time
}

// NewService creates a loan service backed by the given repository and
// book resolver.
func NewService(repo Repository, books BookResolver) *Service {
	return &Service{repo: repo, books: books, now: time.Now}
}

// SetClock overrides the time source. Used by tests to pin "today".
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// RequestInput holds the fields for checking out a book.
type RequestInput struct {
	ISBN          string `json:"isbn"`
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customer_email"`
}

// Request checks out the book with the given ISBN. Returns the new loan's id.
// Fails with ErrBookNotFound if no book carries the ISBN, and with
// ErrBookLoaned if the book already has an active loan. Two concurrent
// requests for the same book can never both succeed: the repository enforces
// the single-active-loan rule atomically at insert time.
func (s *Service) Request(ctx context.Context, input RequestInput) (string, error) {
	if input.ISBN == "" {
		return "", fmt.Errorf("isbn is required")
	}
	if input.Customer == "" {
		return "", fmt.Errorf("customer is required")
	}
	if input.CustomerEmail == "" {
		return "", fmt.Errorf("customer_email is required")
	}

	b, err := s.books.GetByISBN(ctx, input.ISBN)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return "", ErrBookNotFound
		}
		// Store failures stay opaque; only a genuinely absent book is a 404.
		return "", fmt.Errorf("resolve isbn %s: %w", input.ISBN, err)
	}

	l := &domain.Loan{
		BookID:        b.ID,
		Customer:      input.Customer,
		CustomerEmail: input.CustomerEmail,
		LoanDate:      s.today(),
		Status:        domain.LoanActive,
	}

	id, err := s.repo.Create(ctx, l)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Get returns a single loan by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Loan, error) {
	return s.repo.Get(ctx, id)
}

// MarkReturned records whether the book came back. The normal call sets
// returned=true; returned=false reactivates the loan, which the repository
// rejects with ErrBookLoaned if the book has another active loan by then.
func (s *Service) MarkReturned(ctx context.Context, id string, returned bool) (*domain.Loan, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if returned {
		l.Status = domain.LoanReturned
	} else {
		l.Status = domain.LoanActive
	}

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Find returns loans matching the ISBN-or-customer filter, paged.
func (s *Service) Find(ctx context.Context, f Filter, page Page) ([]domain.Loan, int, error) {
	return s.repo.Find(ctx, f, page)
}

// ForBook returns the loan history of a book, including returned loans.
func (s *Service) ForBook(ctx context.Context, bookID string, page Page) ([]domain.Loan, int, error) {
	return s.repo.FindByBook(ctx, bookID, page)
}

// Overdue returns all active loans whose loan date is at least graceDays in
// the past. graceDays <= 0 falls back to DefaultGraceDays.
func (s *Service) Overdue(ctx context.Context, graceDays int) ([]domain.Loan, error) {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}
	cutoff := s.today().AddDate(0, 0, -graceDays)
	return s.repo.FindOverdue(ctx, cutoff)
}

// today truncates the clock to date precision; loan dates carry no time
// component.
func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
