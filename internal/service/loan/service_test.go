package loan_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ignite/library-api/internal/domain"
	"github.com/ignite/library-api/internal/service/book"
	"github.com/ignite/library-api/internal/service/loan"
)

// memRepo is an in-memory loan repository for unit testing. It enforces the
// single-active-loan rule the same way the partial unique index does in
// Postgres: on create and on update.
type memRepo struct {
	mu    sync.Mutex
	next  int
	loans map[string]*domain.Loan // keyed by id
	isbns map[string]string       // book id -> isbn, for Find
}

func newMemRepo() *memRepo {
	return &memRepo{
		loans: make(map[string]*domain.Loan),
		isbns: make(map[string]string),
	}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, loan.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memRepo) Create(_ context.Context, l *domain.Loan) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.loans {
		if existing.BookID == l.BookID && existing.Status == domain.LoanActive {
			return "", loan.ErrBookLoaned
		}
	}
	m.next++
	id := fmt.Sprintf("loan-%d", m.next)
	cp := *l
	cp.ID = id
	m.loans[id] = &cp
	return id, nil
}

func (m *memRepo) Update(_ context.Context, l *domain.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.loans[l.ID]
	if !ok {
		return loan.ErrNotFound
	}
	if l.Status == domain.LoanActive {
		for id, other := range m.loans {
			if id != l.ID && other.BookID == l.BookID && other.Status == domain.LoanActive {
				return loan.ErrBookLoaned
			}
		}
	}
	existing.Status = l.Status
	return nil
}

func (m *memRepo) ExistsActiveForBook(_ context.Context, bookID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loans {
		if l.BookID == bookID && l.Status == domain.LoanActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Find(_ context.Context, f loan.Filter, page loan.Page) ([]domain.Loan, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Loan
	for _, l := range m.loans {
		if m.isbns[l.BookID] == f.ISBN || l.Customer == f.Customer {
			out = append(out, *l)
		}
	}
	return paginate(out, page)
}

func (m *memRepo) FindByBook(_ context.Context, bookID string, page loan.Page) ([]domain.Loan, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Loan
	for _, l := range m.loans {
		if l.BookID == bookID {
			out = append(out, *l)
		}
	}
	return paginate(out, page)
}

func (m *memRepo) FindOverdue(_ context.Context, cutoff time.Time) ([]domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Loan
	for _, l := range m.loans {
		if l.Overdue(cutoff) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func paginate(all []domain.Loan, page loan.Page) ([]domain.Loan, int, error) {
	total := len(all)
	if page.Offset >= len(all) {
		return nil, total, nil
	}
	end := page.Offset + page.Limit
	if end > len(all) || page.Limit <= 0 {
		end = len(all)
	}
	return all[page.Offset:end], total, nil
}

// staticBooks resolves a fixed ISBN -> book mapping.
type staticBooks map[string]*domain.Book

func (s staticBooks) GetByISBN(_ context.Context, isbn string) (*domain.Book, error) {
	b, ok := s[isbn]
	if !ok {
		return nil, book.ErrNotFound
	}
	return b, nil
}

// failingBooks simulates a store outage in the resolver.
type failingBooks struct{ err error }

func (f failingBooks) GetByISBN(context.Context, string) (*domain.Book, error) {
	return nil, f.err
}

func fixture() (*loan.Service, *memRepo) {
	repo := newMemRepo()
	books := staticBooks{"123": {ID: "book-1", Title: "T", Author: "A", ISBN: "123"}}
	repo.isbns["book-1"] = "123"
	svc := loan.NewService(repo, books)
	return svc, repo
}

func request(t *testing.T, svc *loan.Service, isbn string) (string, error) {
	t.Helper()
	return svc.Request(context.Background(), loan.RequestInput{
		ISBN: isbn, Customer: "Fulano", CustomerEmail: "fulano@example.com",
	})
}

func TestRequestLoan(t *testing.T) {
	svc, _ := fixture()

	id, err := request(t, svc, "123")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	l, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if l.Status != domain.LoanActive {
		t.Fatalf("expected active loan, got %s", l.Status)
	}
	if l.BookID != "book-1" {
		t.Fatalf("expected book-1, got %s", l.BookID)
	}
}

func TestRequestLoanBookNotFound(t *testing.T) {
	svc, repo := fixture()

	_, err := request(t, svc, "999")
	if err != loan.ErrBookNotFound {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
	if len(repo.loans) != 0 {
		t.Fatalf("no loan may be created, found %d", len(repo.loans))
	}
}

// A store outage while resolving the ISBN must stay an opaque failure.
// Only a genuinely absent book maps to ErrBookNotFound.
func TestRequestLoanResolverFailure(t *testing.T) {
	repo := newMemRepo()
	outage := errors.New("pq: connection refused")
	svc := loan.NewService(repo, failingBooks{err: outage})

	_, err := svc.Request(context.Background(), loan.RequestInput{
		ISBN: "123", Customer: "Fulano", CustomerEmail: "f@x.com",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, loan.ErrBookNotFound) {
		t.Fatalf("store failure must not surface as ErrBookNotFound: %v", err)
	}
	if !errors.Is(err, outage) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if len(repo.loans) != 0 {
		t.Fatalf("no loan may be created, found %d", len(repo.loans))
	}
}

func TestRequestLoanValidation(t *testing.T) {
	svc, _ := fixture()
	_, err := svc.Request(context.Background(), loan.RequestInput{ISBN: "123"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

// Full lifecycle: lend, second lend fails, return, lend again succeeds.
func TestLendReturnLend(t *testing.T) {
	svc, _ := fixture()

	first, err := request(t, svc, "123")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}

	if _, err := request(t, svc, "123"); err != loan.ErrBookLoaned {
		t.Fatalf("expected ErrBookLoaned, got %v", err)
	}

	l, err := svc.MarkReturned(context.Background(), first, true)
	if err != nil {
		t.Fatalf("mark returned: %v", err)
	}
	if l.Status != domain.LoanReturned {
		t.Fatalf("expected returned, got %s", l.Status)
	}

	if _, err := request(t, svc, "123"); err != nil {
		t.Fatalf("request after return: %v", err)
	}
}

// Concurrent checkouts of the same book: exactly one wins, every other
// request fails with ErrBookLoaned. The repository contract must hold the
// invariant under races, the way the partial unique index does in Postgres.
func TestConcurrentRequestsSingleWinner(t *testing.T) {
	svc, _ := fixture()

	const workers = 16
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Request(context.Background(), loan.RequestInput{
				ISBN: "123", Customer: "Fulano", CustomerEmail: "fulano@example.com",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, loan.ErrBookLoaned):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", won)
	}
	if conflicted != workers-1 {
		t.Fatalf("expected %d conflicts, got %d", workers-1, conflicted)
	}
}

func TestMarkReturnedNotFound(t *testing.T) {
	svc, _ := fixture()
	_, err := svc.MarkReturned(context.Background(), "nonexistent", true)
	if err != loan.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Reactivating a returned loan while the book is out again must fail:
// it would give the book two active loans.
func TestReactivateWhileLoanedOut(t *testing.T) {
	svc, _ := fixture()

	first, _ := request(t, svc, "123")
	svc.MarkReturned(context.Background(), first, true)
	second, _ := request(t, svc, "123")

	_, err := svc.MarkReturned(context.Background(), first, false)
	if err != loan.ErrBookLoaned {
		t.Fatalf("expected ErrBookLoaned, got %v", err)
	}

	// The second loan is untouched.
	l, _ := svc.Get(context.Background(), second)
	if l.Status != domain.LoanActive {
		t.Fatalf("second loan must stay active, got %s", l.Status)
	}
}

func TestOverdue(t *testing.T) {
	svc, repo := fixture()
	today := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return today })

	day := func(daysAgo int) time.Time { return today.AddDate(0, 0, -daysAgo) }

	repo.loans["late"] = &domain.Loan{
		ID: "late", BookID: "book-1", Customer: "Fulano",
		CustomerEmail: "late@example.com", LoanDate: day(5), Status: domain.LoanActive,
	}
	repo.loans["fresh"] = &domain.Loan{
		ID: "fresh", BookID: "book-2", Customer: "Ciclano",
		CustomerEmail: "fresh@example.com", LoanDate: day(0), Status: domain.LoanActive,
	}
	repo.loans["late-returned"] = &domain.Loan{
		ID: "late-returned", BookID: "book-3", Customer: "Beltrano",
		CustomerEmail: "back@example.com", LoanDate: day(10), Status: domain.LoanReturned,
	}
	repo.loans["boundary"] = &domain.Loan{
		ID: "boundary", BookID: "book-4", Customer: "Fulana",
		CustomerEmail: "edge@example.com", LoanDate: day(3), Status: domain.LoanActive,
	}

	got, err := svc.Overdue(context.Background(), 3)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}

	want := map[string]bool{"late": true, "boundary": true}
	if len(got) != len(want) {
		t.Fatalf("expected %d overdue loans, got %d", len(want), len(got))
	}
	for _, l := range got {
		if !want[l.ID] {
			t.Fatalf("unexpected overdue loan %s", l.ID)
		}
	}
}

func TestOverdueDefaultGrace(t *testing.T) {
	svc, repo := fixture()
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return today })

	repo.loans["l1"] = &domain.Loan{
		ID: "l1", BookID: "book-1", LoanDate: today.AddDate(0, 0, -4), Status: domain.LoanActive,
	}

	// graceDays <= 0 falls back to the default of 3.
	got, err := svc.Overdue(context.Background(), 0)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 overdue loan, got %d", len(got))
	}
}

func TestFindDelegates(t *testing.T) {
	svc, _ := fixture()
	id, _ := request(t, svc, "123")

	list, total, err := svc.Find(context.Background(), loan.Filter{ISBN: "123"}, loan.Page{Limit: 10})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != id {
		t.Fatalf("expected the created loan, got %v (total %d)", list, total)
	}

	list, total, err = svc.ForBook(context.Background(), "book-1", loan.Page{Limit: 10})
	if err != nil {
		t.Fatalf("for book: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("expected 1 loan for book, got %d (total %d)", len(list), total)
	}
}
