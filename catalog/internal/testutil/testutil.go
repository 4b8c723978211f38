package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/Astemirdum/book-catalog/catalog/internal/errs"
	"github.com/Astemirdum/book-catalog/catalog/internal/model"
)

// FallenRequest is a valid create body.
func FallenRequest() model.BookRequest {
	return model.BookRequest{
		Title:           "Fallen",
		Author:          "Lauren Kate",
		Isbn:            "9780385738934",
		Description:     "Historia sobre la fuerza del amor",
		PublicationDate: "2009-12-08",
		Genre:           model.GenreNarrativo,
	}
}

// MemRepo is an in-memory repository.Repository that orders by title and
// rejects duplicate isbns like the book table does.
type MemRepo struct {
	mu     sync.Mutex
	seq    int
	books  map[int]model.Book
	writes int
}

func NewMemRepo() *MemRepo {
	return &MemRepo{books: make(map[int]model.Book)}
}

// Writes counts successful mutations.
func (m *MemRepo) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MemRepo) GetBook(_ context.Context, id int) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	return b, nil
}

func (m *MemRepo) GetBookByIsbn(_ context.Context, isbn string) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.Isbn == isbn {
			return b, nil
		}
	}
	return model.Book{}, errs.ErrNotFound
}

func (m *MemRepo) ListBooks(context.Context) ([]model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Book, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (m *MemRepo) CreateBook(_ context.Context, book model.Book) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.Isbn == book.Isbn {
			return model.Book{}, errs.ErrDuplicateIsbn
		}
	}
	m.seq++
	m.writes++
	book.ID = m.seq
	m.books[book.ID] = book
	return book, nil
}

func (m *MemRepo) UpdateBook(_ context.Context, book model.Book) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[book.ID]; !ok {
		return model.Book{}, errs.ErrNotFound
	}
	for _, b := range m.books {
		if b.Isbn == book.Isbn && b.ID != book.ID {
			return model.Book{}, errs.ErrDuplicateIsbn
		}
	}
	m.writes++
	m.books[book.ID] = book
	return book, nil
}

func (m *MemRepo) ToggleAvailability(_ context.Context, id int) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	m.writes++
	b.Available = !b.Available
	m.books[id] = b
	return b, nil
}

func (m *MemRepo) DeleteBook(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return errs.ErrNotFound
	}
	m.writes++
	delete(m.books, id)
	return nil
}

func (m *MemRepo) Ping(context.Context) error { return nil }
