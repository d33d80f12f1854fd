package book_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ignite/library-api/internal/domain"
	"github.com/ignite/library-api/internal/service/book"
)

// memRepo is an in-memory book repository for unit testing.
type memRepo struct {
	mu    sync.Mutex
	next  int
	books map[string]*domain.Book // keyed by id
}

func newMemRepo() *memRepo {
	return &memRepo{books: make(map[string]*domain.Book)}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, book.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memRepo) GetByISBN(_ context.Context, isbn string) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.ISBN == isbn {
			cp := *b
			return &cp, nil
		}
	}
	return nil, book.ErrNotFound
}

func (m *memRepo) Create(_ context.Context, b *domain.Book) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.books {
		if existing.ISBN == b.ISBN {
			return "", book.ErrDuplicateISBN
		}
	}
	m.next++
	id := fmt.Sprintf("book-%d", m.next)
	cp := *b
	cp.ID = id
	m.books[id] = &cp
	return id, nil
}

func (m *memRepo) Update(_ context.Context, b *domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.books[b.ID]
	if !ok {
		return book.ErrNotFound
	}
	existing.Title = b.Title
	existing.Author = b.Author
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return book.ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *memRepo) Search(_ context.Context, f book.SearchFilter, page book.Page) ([]domain.Book, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contains := func(haystack, needle string) bool {
		return needle == "" || strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}
	var out []domain.Book
	for _, b := range m.books {
		if contains(b.Title, f.Title) && contains(b.Author, f.Author) && contains(b.ISBN, f.ISBN) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if page.Offset >= len(out) {
		return nil, total, nil
	}
	end := page.Offset + page.Limit
	if end > len(out) || page.Limit <= 0 {
		end = len(out)
	}
	return out[page.Offset:end], total, nil
}

func TestCreate(t *testing.T) {
	svc := book.NewService(newMemRepo())
	b, err := svc.Create(context.Background(), book.CreateInput{
		Title: "As Aventuras", Author: "Fulano", ISBN: "123",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == "" {
		t.Fatal("expected assigned id")
	}
	if b.ISBN != "123" {
		t.Fatalf("expected isbn 123, got %s", b.ISBN)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := book.NewService(newMemRepo())
	_, err := svc.Create(context.Background(), book.CreateInput{Title: "T"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCreateDuplicateISBN(t *testing.T) {
	repo := newMemRepo()
	svc := book.NewService(repo)
	if _, err := svc.Create(context.Background(), book.CreateInput{Title: "A", Author: "X", ISBN: "123"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(context.Background(), book.CreateInput{Title: "B", Author: "Y", ISBN: "123"})
	if err != book.ErrDuplicateISBN {
		t.Fatalf("expected ErrDuplicateISBN, got %v", err)
	}

	// The failed attempt must not have persisted a second row.
	_, total, _ := svc.Search(context.Background(), book.SearchFilter{ISBN: "123"}, book.Page{Limit: 10})
	if total != 1 {
		t.Fatalf("expected 1 book with isbn 123, got %d", total)
	}
}

func TestGetNotFound(t *testing.T) {
	svc := book.NewService(newMemRepo())
	_, err := svc.Get(context.Background(), "nonexistent")
	if err != book.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByISBN(t *testing.T) {
	svc := book.NewService(newMemRepo())
	created, _ := svc.Create(context.Background(), book.CreateInput{Title: "A", Author: "X", ISBN: "999"})

	got, err := svc.GetByISBN(context.Background(), "999")
	if err != nil {
		t.Fatalf("get by isbn: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected id %s, got %s", created.ID, got.ID)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	svc := book.NewService(newMemRepo())
	if _, err := svc.Update(context.Background(), &domain.Book{Title: "T"}); err != book.ErrMissingID {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	if err := svc.Delete(context.Background(), &domain.Book{}); err != book.ErrMissingID {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc := book.NewService(newMemRepo())
	b, _ := svc.Create(context.Background(), book.CreateInput{Title: "Old", Author: "X", ISBN: "1"})

	b.Title = "New"
	b.Author = "Y"
	got, err := svc.Update(context.Background(), b)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "New" || got.Author != "Y" {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.ISBN != "1" {
		t.Fatalf("isbn must be immutable, got %s", got.ISBN)
	}
}

func TestDelete(t *testing.T) {
	svc := book.NewService(newMemRepo())
	b, _ := svc.Create(context.Background(), book.CreateInput{Title: "A", Author: "X", ISBN: "1"})

	if err := svc.Delete(context.Background(), b); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), b.ID); err != book.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestSearchFilters(t *testing.T) {
	svc := book.NewService(newMemRepo())
	svc.Create(context.Background(), book.CreateInput{Title: "Dom Casmurro", Author: "Machado", ISBN: "100"})
	svc.Create(context.Background(), book.CreateInput{Title: "Dom Quixote", Author: "Cervantes", ISBN: "200"})
	svc.Create(context.Background(), book.CreateInput{Title: "Iracema", Author: "Alencar", ISBN: "300"})

	// Case-insensitive partial match on title.
	list, total, err := svc.Search(context.Background(), book.SearchFilter{Title: "dom"}, book.Page{Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("expected 2 matches, got %d (total %d)", len(list), total)
	}

	// Fields are ANDed.
	_, total, _ = svc.Search(context.Background(), book.SearchFilter{Title: "dom", Author: "machado"}, book.Page{Limit: 10})
	if total != 1 {
		t.Fatalf("expected 1 match, got %d", total)
	}

	// Empty filter matches everything.
	_, total, _ = svc.Search(context.Background(), book.SearchFilter{}, book.Page{Limit: 10})
	if total != 3 {
		t.Fatalf("expected 3 matches, got %d", total)
	}
}
