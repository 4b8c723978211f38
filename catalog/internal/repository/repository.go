package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-catalog/catalog/internal/errs"
	"github.com/Astemirdum/book-catalog/catalog/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	GetBook(ctx context.Context, id int) (model.Book, error)
	GetBookByIsbn(ctx context.Context, isbn string) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	ToggleAvailability(ctx context.Context, id int) (model.Book, error)
	DeleteBook(ctx context.Context, id int) error
	Ping(ctx context.Context) error
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	if db == nil {
		return nil, errors.New("nil pool")
	}
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const bookTableName = `book`

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	bookColumns = []string{
		"id", "title", "author", "isbn", "description", "price",
		"publication_date", "genre", "available", "created_at", "updated_at",
	}
	returning = "returning id, title, author, isbn, description, price, publication_date, genre, available, created_at, updated_at"
)

func (r *repository) GetBook(ctx context.Context, id int) (model.Book, error) {
	return r.getOne(ctx, "GetBook", qb.Select(bookColumns...).
		From(bookTableName).
		Where(sq.Eq{"id": id}).
		Limit(1))
}

func (r *repository) GetBookByIsbn(ctx context.Context, isbn string) (model.Book, error) {
	return r.getOne(ctx, "GetBookByIsbn", qb.Select(bookColumns...).
		From(bookTableName).
		Where(sq.Eq{"isbn": isbn}).
		Limit(1))
}

func (r *repository) ListBooks(ctx context.Context) ([]model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(bookTableName).
		OrderBy("title asc", "id asc").
		ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBooks", zap.String("query", query))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "ListBooks")
	}
	defer rows.Close()

	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}
	return books, nil
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	return r.getOne(ctx, "CreateBook", qb.Insert(bookTableName).
		Columns("title", "author", "isbn", "description", "price", "publication_date", "genre", "available").
		Values(book.Title, book.Author, book.Isbn, book.Description, book.Price,
			book.PublicationDate.Time, string(book.Genre), book.Available).
		Suffix(returning))
}

// UpdateBook overwrites the descriptive fields; available and price are left as stored.
func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	return r.getOne(ctx, "UpdateBook", qb.Update(bookTableName).
		SetMap(map[string]interface{}{
			"title":            book.Title,
			"author":           book.Author,
			"isbn":             book.Isbn,
			"description":      book.Description,
			"publication_date": book.PublicationDate.Time,
			"genre":            string(book.Genre),
			"updated_at":       sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": book.ID}).
		Suffix(returning))
}

func (r *repository) ToggleAvailability(ctx context.Context, id int) (model.Book, error) {
	return r.getOne(ctx, "ToggleAvailability", qb.Update(bookTableName).
		Set("available", sq.Expr("not available")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix(returning))
}

func (r *repository) DeleteBook(ctx context.Context, id int) error {
	query, args, err := qb.Delete(bookTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "DeleteBook")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *repository) getOne(ctx context.Context, op string, b sq.Sqlizer) (model.Book, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, errors.Wrap(mapErr(err), op)
	}
	defer rows.Close()

	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		r.log.Debug(op, zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Book{}, errors.Wrap(mapErr(err), op)
	}
	return book, nil
}

// mapErr turns a unique violation on isbn into errs.ErrDuplicateIsbn.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return errs.ErrDuplicateIsbn
	}
	return err
}
