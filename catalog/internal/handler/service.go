package handler

import (
	"context"

	"github.com/Astemirdum/book-catalog/catalog/internal/model"
	"github.com/Astemirdum/book-catalog/catalog/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int) (model.Book, error)
	UpdateBook(ctx context.Context, id int, req model.BookRequest) (model.Book, error)
	ToggleAvailability(ctx context.Context, id int) (model.Book, error)
	DeleteBook(ctx context.Context, id int) error
	Health(ctx context.Context) error
}

var _ BookService = (*service.Service)(nil)
