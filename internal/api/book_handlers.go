package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/library-api/internal/pkg/httputil"
	"github.com/ignite/library-api/internal/service/book"
	"github.com/ignite/library-api/internal/service/loan"
)

// CreateBook registers a new book in the catalog.
func (h *Handlers) CreateBook(w http.ResponseWriter, r *http.Request) {
	var input book.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	if msg, ok := requireFields(map[string]string{
		"title":  input.Title,
		"author": input.Author,
		"isbn":   input.ISBN,
	}); !ok {
		httputil.BadRequest(w, msg)
		return
	}

	b, err := h.books.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, book.ErrDuplicateISBN) {
			httputil.Conflict(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, b)
}

// GetBook returns one book by id.
func (h *Handlers) GetBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			httputil.NotFound(w, "book not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, b)
}

// UpdateBook changes a book's title and author. The ISBN cannot change; any
// isbn field in the body is ignored.
func (h *Handlers) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}
	if msg, ok := requireFields(map[string]string{
		"title":  input.Title,
		"author": input.Author,
	}); !ok {
		httputil.BadRequest(w, msg)
		return
	}

	b, err := h.books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			httputil.NotFound(w, "book not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	b.Title = input.Title
	b.Author = input.Author
	updated, err := h.books.Update(r.Context(), b)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, updated)
}

// DeleteBook removes a book from the catalog.
func (h *Handlers) DeleteBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			httputil.NotFound(w, "book not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	if err := h.books.Delete(r.Context(), b); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// SearchBooks lists books matching the optional title/author/isbn filters.
func (h *Handlers) SearchBooks(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)
	q := r.URL.Query()
	filter := book.SearchFilter{
		Title:  q.Get("title"),
		Author: q.Get("author"),
		ISBN:   q.Get("isbn"),
	}

	books, total, err := h.books.Search(r.Context(), filter,
		book.Page{Limit: params.Limit, Offset: params.Offset})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(books, params, total))
}

// BookLoans returns a book's full loan history, including returned loans.
func (h *Handlers) BookLoans(w http.ResponseWriter, r *http.Request) {
	b, err := h.books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			httputil.NotFound(w, "book not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	params := ParsePagination(r, 20, 100)
	loans, total, err := h.loans.ForBook(r.Context(), b.ID,
		loan.Page{Limit: params.Limit, Offset: params.Offset})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(loans, params, total))
}

// requireFields returns a message naming the first empty field.
func requireFields(fields map[string]string) (string, bool) {
	// Fixed order keeps error messages deterministic.
	for _, name := range []string{"title", "author", "isbn", "customer", "customer_email"} {
		if v, ok := fields[name]; ok && v == "" {
			return name + " is required", false
		}
	}
	return "", true
}
