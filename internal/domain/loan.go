package domain

import "time"

// LoanStatus enumerates the lifecycle states of a loan. A loan starts active
// and transitions to returned exactly once; there is no further state.
type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
)

// Loan records one checkout of a book. Loans are never deleted; returned
// loans are kept as borrowing history. The storage layer guarantees that a
// book has at most one active loan at a time.
type Loan struct {
	ID            string     `json:"id" db:"id"`
	BookID        string     `json:"book_id" db:"book_id"`
	Customer      string     `json:"customer" db:"customer"`
	CustomerEmail string     `json:"customer_email" db:"customer_email"`
	LoanDate      time.Time  `json:"loan_date" db:"loan_date"`
	Status        LoanStatus `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// Returned reports whether the book has been given back.
func (l Loan) Returned() bool { return l.Status == LoanReturned }

// Overdue reports whether the loan is still active and was taken out on or
// before the given cutoff date. The comparison uses date precision only.
func (l Loan) Overdue(cutoff time.Time) bool {
	if l.Status != LoanActive {
		return false
	}
	y, m, d := l.LoanDate.Date()
	cy, cm, cd := cutoff.Date()
	loanDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	cutoffDay := time.Date(cy, cm, cd, 0, 0, 0, 0, time.UTC)
	return !loanDay.After(cutoffDay)
}
