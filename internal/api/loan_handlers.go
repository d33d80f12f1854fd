package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/library-api/internal/pkg/httputil"
	"github.com/ignite/library-api/internal/service/loan"
)

// CreateLoan checks out a book by ISBN.
func (h *Handlers) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var input loan.RequestInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	if msg, ok := requireFields(map[string]string{
		"isbn":           input.ISBN,
		"customer":       input.Customer,
		"customer_email": input.CustomerEmail,
	}); !ok {
		httputil.BadRequest(w, msg)
		return
	}

	id, err := h.loans.Request(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, loan.ErrBookNotFound):
			httputil.NotFound(w, err.Error())
		case errors.Is(err, loan.ErrBookLoaned):
			httputil.Conflict(w, err.Error())
		default:
			httputil.InternalError(w, err)
		}
		return
	}
	httputil.Created(w, map[string]string{"id": id})
}

// GetLoan returns one loan by id.
func (h *Handlers) GetLoan(w http.ResponseWriter, r *http.Request) {
	l, err := h.loans.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, loan.ErrNotFound) {
			httputil.NotFound(w, "loan not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, l)
}

// ReturnLoan records whether the book came back.
func (h *Handlers) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Returned *bool `json:"returned"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}
	if input.Returned == nil {
		httputil.BadRequest(w, "returned is required")
		return
	}

	l, err := h.loans.MarkReturned(r.Context(), chi.URLParam(r, "id"), *input.Returned)
	if err != nil {
		switch {
		case errors.Is(err, loan.ErrNotFound):
			httputil.NotFound(w, "loan not found")
		case errors.Is(err, loan.ErrBookLoaned):
			httputil.Conflict(w, err.Error())
		default:
			httputil.InternalError(w, err)
		}
		return
	}
	httputil.OK(w, l)
}

// SearchLoans lists loans by book ISBN or customer name.
func (h *Handlers) SearchLoans(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)
	q := r.URL.Query()
	filter := loan.Filter{
		ISBN:     q.Get("isbn"),
		Customer: q.Get("customer"),
	}

	loans, total, err := h.loans.Find(r.Context(), filter,
		loan.Page{Limit: params.Limit, Offset: params.Offset})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(loans, params, total))
}
