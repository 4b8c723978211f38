package service_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-catalog/catalog/internal/errs"
	"github.com/Astemirdum/book-catalog/catalog/internal/model"
	repo_mocks "github.com/Astemirdum/book-catalog/catalog/internal/repository/mocks"
	"github.com/Astemirdum/book-catalog/catalog/internal/service"
	service_mocks "github.com/Astemirdum/book-catalog/catalog/internal/service/mocks"
	"github.com/Astemirdum/book-catalog/catalog/internal/testutil"
	"github.com/Astemirdum/book-catalog/pkg/validate"
)

func fallenBook(id int, available bool) model.Book {
	b, _ := testutil.FallenRequest().Book()
	b.ID = id
	b.Available = available
	return b
}

func TestService_CreateBook(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher)

	errDB := errors.New("connection refused")
	tests := []struct {
		name         string
		req          model.BookRequest
		mockBehavior mockBehavior
		want         model.Book
		wantErr      error
	}{
		{
			name: "ok",
			req:  testutil.FallenRequest(),
			mockBehavior: func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher) {
				r.EXPECT().GetBookByIsbn(gomock.Any(), "9780385738934").Return(model.Book{}, errs.ErrNotFound)
				r.EXPECT().CreateBook(gomock.Any(), fallenBook(0, true)).Return(fallenBook(1, true), nil)
				p.EXPECT().Publish(gomock.Any(), "1", gomock.Any()).Return(nil)
			},
			want: fallenBook(1, true),
		},
		{
			name: "ok. publish failure is not fatal",
			req:  testutil.FallenRequest(),
			mockBehavior: func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher) {
				r.EXPECT().GetBookByIsbn(gomock.Any(), "9780385738934").Return(model.Book{}, errs.ErrNotFound)
				r.EXPECT().CreateBook(gomock.Any(), gomock.Any()).Return(fallenBook(1, true), nil)
				p.EXPECT().Publish(gomock.Any(), "1", gomock.Any()).Return(errors.New("broker down"))
			},
			want: fallenBook(1, true),
		},
		{
			name: "err. duplicate isbn",
			req:  testutil.FallenRequest(),
			mockBehavior: func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher) {
				r.EXPECT().GetBookByIsbn(gomock.Any(), "9780385738934").Return(fallenBook(7, true), nil)
			},
			wantErr: errs.ErrDuplicateIsbn,
		},
		{
			name: "err. duplicate isbn rejected by the store",
			req:  testutil.FallenRequest(),
			mockBehavior: func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher) {
				r.EXPECT().GetBookByIsbn(gomock.Any(), "9780385738934").Return(model.Book{}, errs.ErrNotFound)
				r.EXPECT().CreateBook(gomock.Any(), gomock.Any()).
					Return(model.Book{}, errors.Wrap(errs.ErrDuplicateIsbn, "CreateBook"))
			},
			wantErr: errs.ErrDuplicateIsbn,
		},
		{
			name: "err. storage",
			req:  testutil.FallenRequest(),
			mockBehavior: func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher) {
				r.EXPECT().GetBookByIsbn(gomock.Any(), "9780385738934").Return(model.Book{}, errDB)
			},
			wantErr: errDB,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			repo := repo_mocks.NewMockRepository(c)
			pub := service_mocks.NewMockEventPublisher(c)
			tt.mockBehavior(repo, pub)

			svc := service.NewService(repo, pub, zap.NewNop())
			got, err := svc.CreateBook(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestService_CreateBook_BadDate(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	svc := service.NewService(repo_mocks.NewMockRepository(c), service_mocks.NewMockEventPublisher(c), zap.NewNop())

	req := testutil.FallenRequest()
	req.PublicationDate = "08/12/2009"
	_, err := svc.CreateBook(context.Background(), req)

	var verrs validate.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Equal(t, "publicationDate", verrs[0].Field)
}

func TestService_UpdateBook(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher)

	renamed := testutil.FallenRequest()
	renamed.Title = "Fallen (edicion especial)"

	tests := []struct {
		name         string
		id           int
		req          model.BookRequest
		mockBehavior mockBehavior
		want         model.Book
		wantErr      error
	}{
		{
			name: "ok. same isbn, availability kept",
			id:   1,
			req:  renamed,
			mockBehavior: func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher) {
				stored := fallenBook(1, false)
				r.EXPECT().GetBook(gomock.Any(), 1).Return(stored, nil)
				r.EXPECT().GetBookByIsbn(gomock.Any(), "9780385738934").Return(stored, nil)
				expected := stored
				expected.Title = "Fallen (edicion especial)"
				r.EXPECT().UpdateBook(gomock.Any(), expected).Return(expected, nil)
				p.EXPECT().Publish(gomock.Any(), "1", gomock.Any()).Return(nil)
			},
			want: func() model.Book {
				b := fallenBook(1, false)
				b.Title = "Fallen (edicion especial)"
				return b
			}(),
		},
		{
			name: "err. not found",
			id:   99,
			req:  renamed,
			mockBehavior: func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher) {
				r.EXPECT().GetBook(gomock.Any(), 99).Return(model.Book{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name: "err. isbn owned by another book",
			id:   1,
			req:  renamed,
			mockBehavior: func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher) {
				r.EXPECT().GetBook(gomock.Any(), 1).Return(fallenBook(1, true), nil)
				r.EXPECT().GetBookByIsbn(gomock.Any(), "9780385738934").Return(fallenBook(2, true), nil)
			},
			wantErr: errs.ErrDuplicateIsbn,
		},
		{
			name: "err. row vanished before write",
			id:   1,
			req:  renamed,
			mockBehavior: func(r *repo_mocks.MockRepository, p *service_mocks.MockEventPublisher) {
				r.EXPECT().GetBook(gomock.Any(), 1).Return(fallenBook(1, true), nil)
				r.EXPECT().GetBookByIsbn(gomock.Any(), "9780385738934").Return(model.Book{}, errs.ErrNotFound)
				r.EXPECT().UpdateBook(gomock.Any(), gomock.Any()).Return(model.Book{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			repo := repo_mocks.NewMockRepository(c)
			pub := service_mocks.NewMockEventPublisher(c)
			tt.mockBehavior(repo, pub)

			svc := service.NewService(repo, pub, zap.NewNop())
			got, err := svc.UpdateBook(context.Background(), tt.id, tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestService_DeleteBook(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	repo := repo_mocks.NewMockRepository(c)
	pub := service_mocks.NewMockEventPublisher(c)
	svc := service.NewService(repo, pub, zap.NewNop())

	repo.EXPECT().GetBook(gomock.Any(), 1).Return(fallenBook(1, true), nil)
	repo.EXPECT().DeleteBook(gomock.Any(), 1).Return(nil)
	pub.EXPECT().Publish(gomock.Any(), "1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, v any) error {
			ev, ok := v.(model.BookEvent)
			require.True(t, ok)
			require.Equal(t, model.EventDeleted, ev.Type)
			require.Equal(t, 1, ev.Book.ID)
			return nil
		})
	require.NoError(t, svc.DeleteBook(context.Background(), 1))

	repo.EXPECT().GetBook(gomock.Any(), 2).Return(model.Book{}, errs.ErrNotFound)
	require.ErrorIs(t, svc.DeleteBook(context.Background(), 2), errs.ErrNotFound)
}

func TestService_ListBooks_Empty(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	repo := repo_mocks.NewMockRepository(c)
	svc := service.NewService(repo, service_mocks.NewMockEventPublisher(c), zap.NewNop())

	repo.EXPECT().ListBooks(gomock.Any()).Return(nil, nil)
	books, err := svc.ListBooks(context.Background())
	require.NoError(t, err)
	require.NotNil(t, books)
	require.Empty(t, books)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

func TestService_Properties(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := testutil.NewMemRepo()
	svc := service.NewService(repo, nopPublisher{}, zap.NewNop())

	titles := []string{"Zorro", "Abel Sanchez", "Marianela", "Niebla"}
	isbns := []string{"9780060779009", "9788437604947", "9788420634104", "9788437600703"}
	created := make([]model.Book, 0, len(titles))
	for i, title := range titles {
		req := testutil.FallenRequest()
		req.Title = title
		req.Isbn = isbns[i]
		b, err := svc.CreateBook(ctx, req)
		require.NoError(t, err)
		require.True(t, b.Available)
		require.NotZero(t, b.ID)

		got, err := svc.GetBook(ctx, b.ID)
		require.NoError(t, err)
		require.Equal(t, b, got)
		created = append(created, b)
	}

	t.Run("list sorted by title", func(t *testing.T) {
		books, err := svc.ListBooks(ctx)
		require.NoError(t, err)
		require.Len(t, books, len(titles))
		for i := 1; i < len(books); i++ {
			require.LessOrEqual(t, books[i-1].Title, books[i].Title)
		}
	})

	t.Run("duplicate isbn leaves records unchanged", func(t *testing.T) {
		writes := repo.Writes()
		req := testutil.FallenRequest()
		req.Title = "Otro titulo"
		req.Isbn = created[0].Isbn
		_, err := svc.CreateBook(ctx, req)
		require.ErrorIs(t, err, errs.ErrDuplicateIsbn)

		_, err = svc.UpdateBook(ctx, created[1].ID, req)
		require.ErrorIs(t, err, errs.ErrDuplicateIsbn)
		require.Equal(t, writes, repo.Writes())

		got, err := svc.GetBook(ctx, created[1].ID)
		require.NoError(t, err)
		require.Equal(t, created[1], got)
	})

	t.Run("toggle is an involution", func(t *testing.T) {
		orig := created[2]
		once, err := svc.ToggleAvailability(ctx, orig.ID)
		require.NoError(t, err)
		require.Equal(t, !orig.Available, once.Available)
		twice, err := svc.ToggleAvailability(ctx, orig.ID)
		require.NoError(t, err)
		require.Equal(t, orig, twice)
	})

	t.Run("update keeps availability", func(t *testing.T) {
		b := created[3]
		_, err := svc.ToggleAvailability(ctx, b.ID)
		require.NoError(t, err)

		req := testutil.FallenRequest()
		req.Title = "Niebla (nivola)"
		req.Isbn = b.Isbn
		req.Genre = model.GenreDidactico
		updated, err := svc.UpdateBook(ctx, b.ID, req)
		require.NoError(t, err)
		require.False(t, updated.Available)
		require.Equal(t, "Niebla (nivola)", updated.Title)
		require.Equal(t, model.GenreDidactico, updated.Genre)
	})

	t.Run("missing ids", func(t *testing.T) {
		for _, missing := range []int{4242, 3000000000} {
			_, err := svc.GetBook(ctx, missing)
			require.ErrorIs(t, err, errs.ErrNotFound)
			_, err = svc.UpdateBook(ctx, missing, testutil.FallenRequest())
			require.ErrorIs(t, err, errs.ErrNotFound)
			_, err = svc.ToggleAvailability(ctx, missing)
			require.ErrorIs(t, err, errs.ErrNotFound)
			require.ErrorIs(t, svc.DeleteBook(ctx, missing), errs.ErrNotFound)
		}
	})
}
