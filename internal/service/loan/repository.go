package loan

import (
	"context"
	"time"

	"github.com/ignite/library-api/internal/domain"
)

// Repository defines the data access contract for loans.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single loan by id. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Loan, error)

	// Create inserts a new loan and returns its id. Returns ErrBookLoaned if
	// an active loan already exists for the same book. The check must hold
	// under concurrent creates for the same book.
	Create(ctx context.Context, l *domain.Loan) (string, error)

	// Update persists the loan's status. Returns ErrNotFound if the loan
	// doesn't exist, and ErrBookLoaned if reactivating the loan would give
	// its book a second active loan.
	Update(ctx context.Context, l *domain.Loan) error

	// ExistsActiveForBook reports whether the book currently has an
	// active loan.
	ExistsActiveForBook(ctx context.Context, bookID string) (bool, error)

	// Find returns loans whose book ISBN equals f.ISBN or whose customer
	// equals f.Customer (exact matches, OR), plus the total match count.
	Find(ctx context.Context, f Filter, page Page) ([]domain.Loan, int, error)

	// FindByBook returns the full loan history for a book, including
	// returned loans, plus the total count.
	FindByBook(ctx context.Context, bookID string, page Page) ([]domain.Loan, int, error)

	// FindOverdue returns all active loans with loan_date on or before the
	// cutoff date. Unpaged; overdue sets are expected to be small.
	FindOverdue(ctx context.Context, cutoff time.Time) ([]domain.Loan, error)
}

// Filter selects loans by book ISBN or customer name. Both fields are exact
// matches and combined with OR, mirroring the lookup the front desk does
// when a book or a borrower comes back.
type Filter struct {
	ISBN     string
	Customer string
}

// Page controls offset pagination for list queries.
type Page struct {
	Limit  int
	Offset int
}
