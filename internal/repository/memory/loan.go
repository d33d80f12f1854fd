package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/library-api/internal/domain"
	"github.com/ignite/library-api/internal/service/book"
	"github.com/ignite/library-api/internal/service/loan"
)

// LoanRepo implements loan.Repository in memory. It shares the book repo so
// the ISBN join in Find works like the SQL version.
type LoanRepo struct {
	mu    sync.Mutex
	books *BookRepo
	loans map[string]*domain.Loan // keyed by id
}

// NewLoanRepo creates an empty in-memory loan repository joined to books.
func NewLoanRepo(books *BookRepo) *LoanRepo {
	return &LoanRepo{books: books, loans: make(map[string]*domain.Loan)}
}

func (r *LoanRepo) Get(_ context.Context, id string) (*domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok {
		return nil, loan.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *LoanRepo) Create(_ context.Context, l *domain.Loan) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.loans {
		if existing.BookID == l.BookID && existing.Status == domain.LoanActive {
			return "", loan.ErrBookLoaned
		}
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	cp := *l
	cp.CreatedAt = time.Now().UTC()
	r.loans[cp.ID] = &cp
	return cp.ID, nil
}

func (r *LoanRepo) Update(_ context.Context, l *domain.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.loans[l.ID]
	if !ok {
		return loan.ErrNotFound
	}
	if l.Status == domain.LoanActive {
		for id, other := range r.loans {
			if id != l.ID && other.BookID == existing.BookID && other.Status == domain.LoanActive {
				return loan.ErrBookLoaned
			}
		}
	}
	existing.Status = l.Status
	return nil
}

func (r *LoanRepo) ExistsActiveForBook(_ context.Context, bookID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.loans {
		if l.BookID == bookID && l.Status == domain.LoanActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *LoanRepo) Find(ctx context.Context, f loan.Filter, page loan.Page) ([]domain.Loan, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []domain.Loan
	for _, l := range r.loans {
		matchISBN := false
		if f.ISBN != "" {
			if b, err := r.books.Get(ctx, l.BookID); err == nil && b.ISBN == f.ISBN {
				matchISBN = true
			}
		}
		matchCustomer := f.Customer != "" && l.Customer == f.Customer
		if matchISBN || matchCustomer {
			all = append(all, *l)
		}
	}
	return paginate(all, page)
}

func (r *LoanRepo) FindByBook(_ context.Context, bookID string, page loan.Page) ([]domain.Loan, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []domain.Loan
	for _, l := range r.loans {
		if l.BookID == bookID {
			all = append(all, *l)
		}
	}
	return paginate(all, page)
}

func (r *LoanRepo) FindOverdue(_ context.Context, cutoff time.Time) ([]domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Loan
	for _, l := range r.loans {
		if l.Overdue(cutoff) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoanDate.Before(out[j].LoanDate) })
	return out, nil
}

func paginate(all []domain.Loan, page loan.Page) ([]domain.Loan, int, error) {
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if page.Offset >= total {
		return nil, total, nil
	}
	end := page.Offset + page.Limit
	if end > total || page.Limit <= 0 {
		end = total
	}
	return all[page.Offset:end], total, nil
}

// interface guards
var (
	_ book.Repository = (*BookRepo)(nil)
	_ loan.Repository = (*LoanRepo)(nil)
)
