package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/library-api/internal/domain"
	"github.com/ignite/library-api/internal/service/book"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

// likeEscaper neutralizes LIKE metacharacters in user-supplied filter text.
// Backslash is the default escape character for Postgres LIKE/ILIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// BookRepo implements book.Repository against PostgreSQL.
type BookRepo struct{ db *sql.DB }

// NewBookRepo creates a Postgres-backed book repository.
func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{db: db} }

func (r *BookRepo) Get(ctx context.Context, id string) (*domain.Book, error) {
	b := &domain.Book{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, author, isbn, created_at, updated_at
		FROM books
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, book.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *BookRepo) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	b := &domain.Book{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, author, isbn, created_at, updated_at
		FROM books
		WHERE isbn = $1
	`, isbn).Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, book.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book by isbn: %w", err)
	}
	return b, nil
}

func (r *BookRepo) Create(ctx context.Context, b *domain.Book) (string, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author, isbn, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`, b.ID, b.Title, b.Author, b.ISBN)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", book.ErrDuplicateISBN
		}
		return "", fmt.Errorf("create book: %w", err)
	}
	return b.ID, nil
}

func (r *BookRepo) Update(ctx context.Context, b *domain.Book) error {
	// The isbn column is deliberately absent: it is immutable after creation.
	res, err := r.db.ExecContext(ctx, `
		UPDATE books SET title = $1, author = $2, updated_at = NOW()
		WHERE id = $3
	`, b.Title, b.Author, b.ID)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return book.ErrNotFound
	}
	return nil
}

func (r *BookRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return book.ErrNotFound
	}
	return nil
}

func (r *BookRepo) Search(ctx context.Context, f book.SearchFilter, page book.Page) ([]domain.Book, int, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	where := ""
	args := []interface{}{}
	idx := 1
	add := func(col, val string) {
		if val == "" {
			return
		}
		if where == "" {
			where = " WHERE"
		} else {
			where += " AND"
		}
		where += fmt.Sprintf(" %s ILIKE '%%' || $%d || '%%'", col, idx)
		// Filter text is literal: % and _ in it must not act as wildcards.
		args = append(args, likeEscaper.Replace(val))
		idx++
	}
	add("title", f.Title)
	add("author", f.Author)
	add("isbn", f.ISBN)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT id, title, author, isbn, created_at, updated_at
		FROM books%s
		ORDER BY id LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	var out []domain.Book
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("search books: %w", err)
	}
	return out, total, nil
}
