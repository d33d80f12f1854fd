package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/library-api/internal/domain"
	"github.com/ignite/library-api/internal/service/loan"
	"github.com/lib/pq"
)

// LoanRepo implements loan.Repository against PostgreSQL.
//
// The single-active-loan rule is backed by the partial unique index
// loans_one_active_per_book on loans(book_id) WHERE returned IS NOT TRUE.
// Both Create and Update translate violations of that index into
// loan.ErrBookLoaned, so concurrent checkouts of the same book resolve to
// exactly one winner without any cross-book locking.
type LoanRepo struct{ db *sql.DB }

// NewLoanRepo creates a Postgres-backed loan repository.
func NewLoanRepo(db *sql.DB) *LoanRepo { return &LoanRepo{db: db} }

const loanColumns = `id, book_id, customer, customer_email, loan_date, returned, created_at`

// scanLoan maps a loans row to the domain type. The legacy returned column
// is a nullable boolean: NULL and false both mean the book is still out.
func scanLoan(scan func(dest ...interface{}) error) (*domain.Loan, error) {
	l := &domain.Loan{}
	var returned sql.NullBool
	if err := scan(&l.ID, &l.BookID, &l.Customer, &l.CustomerEmail, &l.LoanDate, &returned, &l.CreatedAt); err != nil {
		return nil, err
	}
	if returned.Valid && returned.Bool {
		l.Status = domain.LoanReturned
	} else {
		l.Status = domain.LoanActive
	}
	return l, nil
}

// returnedValue maps the domain status back onto the nullable column.
// Active loans are stored as NULL, matching rows written before the status
// enum existed.
func returnedValue(s domain.LoanStatus) interface{} {
	if s == domain.LoanReturned {
		return true
	}
	return nil
}

func (r *LoanRepo) Get(ctx context.Context, id string) (*domain.Loan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	l, err := scanLoan(row.Scan)
	if err == sql.ErrNoRows {
		return nil, loan.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return l, nil
}

func (r *LoanRepo) Create(ctx context.Context, l *domain.Loan) (string, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO loans (id, book_id, customer, customer_email, loan_date, returned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, l.ID, l.BookID, l.Customer, l.CustomerEmail, l.LoanDate, returnedValue(l.Status))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", loan.ErrBookLoaned
		}
		return "", fmt.Errorf("create loan: %w", err)
	}
	return l.ID, nil
}

func (r *LoanRepo) Update(ctx context.Context, l *domain.Loan) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE loans SET returned = $1 WHERE id = $2`,
		returnedValue(l.Status), l.ID)
	if err != nil {
		// Flipping a loan back to active trips the partial unique index if
		// the book has picked up another active loan since.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return loan.ErrBookLoaned
		}
		return fmt.Errorf("update loan: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return loan.ErrNotFound
	}
	return nil
}

func (r *LoanRepo) ExistsActiveForBook(ctx context.Context, bookID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM loans WHERE book_id = $1 AND returned IS NOT TRUE)`,
		bookID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("active loan check: %w", err)
	}
	return exists, nil
}

func (r *LoanRepo) Find(ctx context.Context, f loan.Filter, page loan.Page) ([]domain.Loan, int, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM loans l JOIN books b ON b.id = l.book_id
		WHERE b.isbn = $1 OR l.customer = $2
	`, f.ISBN, f.Customer).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count loans: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.book_id, l.customer, l.customer_email, l.loan_date, l.returned, l.created_at
		FROM loans l JOIN books b ON b.id = l.book_id
		WHERE b.isbn = $1 OR l.customer = $2
		ORDER BY l.id LIMIT $3 OFFSET $4
	`, f.ISBN, f.Customer, limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("find loans: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows, total)
}

func (r *LoanRepo) FindByBook(ctx context.Context, bookID string, page loan.Page) ([]domain.Loan, int, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE book_id = $1`, bookID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count loans for book: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE book_id = $1
		ORDER BY id LIMIT $2 OFFSET $3
	`, bookID, limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("loans for book: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows, total)
}

func (r *LoanRepo) FindOverdue(ctx context.Context, cutoff time.Time) ([]domain.Loan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE loan_date <= $1 AND returned IS NOT TRUE
		ORDER BY loan_date
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("overdue loans: %w", err)
	}
	defer rows.Close()

	out, _, err := collectLoans(rows, 0)
	return out, err
}

func collectLoans(rows *sql.Rows, total int) ([]domain.Loan, int, error) {
	var out []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan loan: %w", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("read loans: %w", err)
	}
	return out, total, nil
}
