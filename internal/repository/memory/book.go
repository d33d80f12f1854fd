package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/library-api/internal/domain"
	"github.com/ignite/library-api/internal/service/book"
)

// BookRepo implements book.Repository in memory.
type BookRepo struct {
	mu    sync.Mutex
	books map[string]*domain.Book // keyed by id
}

// NewBookRepo creates an empty in-memory book repository.
func NewBookRepo() *BookRepo {
	return &BookRepo{books: make(map[string]*domain.Book)}
}

func (r *BookRepo) Get(_ context.Context, id string) (*domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, book.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *BookRepo) GetByISBN(_ context.Context, isbn string) (*domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.ISBN == isbn {
			cp := *b
			return &cp, nil
		}
	}
	return nil, book.ErrNotFound
}

func (r *BookRepo) Create(_ context.Context, b *domain.Book) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.books {
		if existing.ISBN == b.ISBN {
			return "", book.ErrDuplicateISBN
		}
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	cp := *b
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.books[cp.ID] = &cp
	return cp.ID, nil
}

func (r *BookRepo) Update(_ context.Context, b *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.books[b.ID]
	if !ok {
		return book.ErrNotFound
	}
	// isbn stays untouched, same as the Postgres UPDATE.
	existing.Title = b.Title
	existing.Author = b.Author
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *BookRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return book.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *BookRepo) Search(_ context.Context, f book.SearchFilter, page book.Page) ([]domain.Book, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contains := func(haystack, needle string) bool {
		return needle == "" || strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}

	var all []domain.Book
	for _, b := range r.books {
		if contains(b.Title, f.Title) && contains(b.Author, f.Author) && contains(b.ISBN, f.ISBN) {
			all = append(all, *b)
		}
	}
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
