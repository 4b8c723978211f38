package service

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-catalog/catalog/internal/errs"
	"github.com/Astemirdum/book-catalog/catalog/internal/model"
	"github.com/Astemirdum/book-catalog/catalog/internal/repository"
	"github.com/Astemirdum/book-catalog/pkg/validate"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type EventPublisher interface {
	Publish(ctx context.Context, key string, v any) error
}

type Service struct {
	log       *zap.Logger
	repo      repository.Repository
	publisher EventPublisher
	now       func() time.Time
}

func NewService(repo repository.Repository, publisher EventPublisher, log *zap.Logger) *Service {
	return &Service{
		log:       log.Named("service"),
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateBook inserts a new available book unless its isbn is already taken.
func (s *Service) CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error) {
	book, err := req.Book()
	if err != nil {
		return model.Book{}, validate.NewError("publicationDate", "publicationDate must be a date in 2006-01-02 format")
	}

	if _, err = s.repo.GetBookByIsbn(ctx, book.Isbn); err == nil {
		return model.Book{}, errs.ErrDuplicateIsbn
	} else if !errors.Is(err, errs.ErrNotFound) {
		return model.Book{}, s.fail("CreateBook", err)
	}

	created, err := s.repo.CreateBook(ctx, book)
	if err != nil {
		return model.Book{}, s.fail("CreateBook", err)
	}
	s.publish(ctx, model.EventCreated, created)
	return created, nil
}

func (s *Service) ListBooks(ctx context.Context) ([]model.Book, error) {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		return nil, s.fail("ListBooks", err)
	}
	if books == nil {
		books = []model.Book{}
	}
	return books, nil
}

func (s *Service) GetBook(ctx context.Context, id int) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, s.fail("GetBook", err)
	}
	return book, nil
}

// UpdateBook replaces the descriptive fields of book id. Availability is kept.
func (s *Service) UpdateBook(ctx context.Context, id int, req model.BookRequest) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, s.fail("UpdateBook", err)
	}
	next, err := req.Book()
	if err != nil {
		return model.Book{}, validate.NewError("publicationDate", "publicationDate must be a date in 2006-01-02 format")
	}

	holder, err := s.repo.GetBookByIsbn(ctx, next.Isbn)
	switch {
	case err == nil && holder.ID != book.ID:
		return model.Book{}, errs.ErrDuplicateIsbn
	case err != nil && !errors.Is(err, errs.ErrNotFound):
		return model.Book{}, s.fail("UpdateBook", err)
	}

	book.Title = next.Title
	book.Author = next.Author
	book.Isbn = next.Isbn
	book.Description = next.Description
	book.PublicationDate = next.PublicationDate
	book.Genre = next.Genre

	updated, err := s.repo.UpdateBook(ctx, book)
	if err != nil {
		return model.Book{}, s.fail("UpdateBook", err)
	}
	s.publish(ctx, model.EventUpdated, updated)
	return updated, nil
}

// ToggleAvailability flips available. Two calls restore the original state.
func (s *Service) ToggleAvailability(ctx context.Context, id int) (model.Book, error) {
	book, err := s.repo.ToggleAvailability(ctx, id)
	if err != nil {
		return model.Book{}, s.fail("ToggleAvailability", err)
	}
	s.publish(ctx, model.EventAvailability, book)
	return book, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int) error {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return s.fail("DeleteBook", err)
	}
	if err = s.repo.DeleteBook(ctx, id); err != nil {
		return s.fail("DeleteBook", err)
	}
	s.publish(ctx, model.EventDeleted, book)
	return nil
}

func (s *Service) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// fail passes domain errors through and logs everything else as a storage failure.
func (s *Service) fail(op string, err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return errs.ErrNotFound
	}
	if errors.Is(err, errs.ErrDuplicateIsbn) {
		return errs.ErrDuplicateIsbn
	}
	s.log.Error("storage failure", zap.String("op", op), zap.Error(err))
	return errors.Wrap(err, op)
}

func (s *Service) publish(ctx context.Context, typ model.EventType, book model.Book) {
	ev := model.BookEvent{Type: typ, Book: book, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, strconv.Itoa(book.ID), ev); err != nil {
		s.log.Warn("publish book event",
			zap.String("type", string(typ)),
			zap.Int("id", book.ID),
			zap.Error(err))
	}
}
