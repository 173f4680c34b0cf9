package book

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"librarycatalog/internal/entity"
	"librarycatalog/internal/testutil"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindAuthor(ctx context.Context, familyName, firstName string) (entity.Author, error) {
	args := m.Called(ctx, familyName, firstName)
	return args.Get(0).(entity.Author), args.Error(1)
}

func (m *mockStore) CreateAuthor(ctx context.Context, author *entity.Author) error {
	args := m.Called(ctx, author)
	return args.Error(0)
}

func (m *mockStore) FindGenre(ctx context.Context, name string) (entity.Genre, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(entity.Genre), args.Error(1)
}

func (m *mockStore) CreateGenre(ctx context.Context, genre *entity.Genre) error {
	args := m.Called(ctx, genre)
	return args.Error(0)
}

func (m *mockStore) CreateBook(ctx context.Context, book *entity.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockStore) GetBook(ctx context.Context, id string) (entity.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entity.Book), args.Error(1)
}

func (m *mockStore) ListInstances(ctx context.Context, bookID string) ([]entity.BookInstance, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.BookInstance), args.Error(1)
}

func assignID(id string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		switch v := args.Get(1).(type) {
		case *entity.Author:
			v.ID = id
		case *entity.Genre:
			v.ID = id
		case *entity.Book:
			v.ID = id
		}
	}
}

func TestResolver_ResolveAuthor(t *testing.T) {
	ctx := context.Background()
	existing := testutil.TestAuthor

	t.Run("existing author is reused", func(t *testing.T) {
		ms := new(mockStore)
		r := NewResolver(ms, testutil.DiscardLogger())

		ms.On("FindAuthor", ctx, "Tagore", "Robi").Return(existing, nil)

		got, err := r.ResolveAuthor(ctx, "Tagore", "Robi")
		require.NoError(t, err)
		assert.Equal(t, existing, got.Entity)
		assert.False(t, got.Created)
		ms.AssertNotCalled(t, "CreateAuthor", mock.Anything, mock.Anything)
	})

	t.Run("missing author is created", func(t *testing.T) {
		ms := new(mockStore)
		r := NewResolver(ms, testutil.DiscardLogger())

		ms.On("FindAuthor", ctx, "Tagore", "Robi").Return(entity.Author{}, ErrNotFound)
		ms.On("CreateAuthor", ctx, mock.MatchedBy(func(a *entity.Author) bool {
			return a.FamilyName == "Tagore" && a.FirstName == "Robi" && a.ID == ""
		})).Run(assignID("new-author")).Return(nil)

		got, err := r.ResolveAuthor(ctx, "Tagore", "Robi")
		require.NoError(t, err)
		assert.True(t, got.Created)
		assert.Equal(t, entity.Author{ID: "new-author", FamilyName: "Tagore", FirstName: "Robi"}, got.Entity)
		ms.AssertExpectations(t)
	})

	t.Run("find failure is a persistence error", func(t *testing.T) {
		ms := new(mockStore)
		r := NewResolver(ms, testutil.DiscardLogger())
		dbErr := errors.New("connection reset")

		ms.On("FindAuthor", ctx, "Tagore", "Robi").Return(entity.Author{}, dbErr)

		_, err := r.ResolveAuthor(ctx, "Tagore", "Robi")
		var pe *PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "find author", pe.Op)
		assert.ErrorIs(t, err, dbErr)
		ms.AssertNotCalled(t, "CreateAuthor", mock.Anything, mock.Anything)
	})

	t.Run("create failure is a persistence error", func(t *testing.T) {
		ms := new(mockStore)
		r := NewResolver(ms, testutil.DiscardLogger())
		dbErr := errors.New("disk full")

		ms.On("FindAuthor", ctx, "Tagore", "Robi").Return(entity.Author{}, ErrNotFound)
		ms.On("CreateAuthor", ctx, mock.Anything).Return(dbErr)

		_, err := r.ResolveAuthor(ctx, "Tagore", "Robi")
		var pe *PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "create author", pe.Op)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("conflict on create rereads the winner", func(t *testing.T) {
		ms := new(mockStore)
		r := NewResolver(ms, testutil.DiscardLogger())

		ms.On("FindAuthor", ctx, "Tagore", "Robi").Return(entity.Author{}, ErrNotFound).Once()
		ms.On("CreateAuthor", ctx, mock.Anything).Return(ErrConflict).Once()
		ms.On("FindAuthor", ctx, "Tagore", "Robi").Return(existing, nil).Once()

		got, err := r.ResolveAuthor(ctx, "Tagore", "Robi")
		require.NoError(t, err)
		assert.Equal(t, existing, got.Entity)
		assert.False(t, got.Created)
		ms.AssertExpectations(t)
	})
}

func TestResolver_ResolveGenre(t *testing.T) {
	ctx := context.Background()

	t.Run("existing genre is reused", func(t *testing.T) {
		ms := new(mockStore)
		r := NewResolver(ms, testutil.DiscardLogger())

		ms.On("FindGenre", ctx, "Fiction").Return(testutil.TestGenre, nil)

		got, err := r.ResolveGenre(ctx, "Fiction")
		require.NoError(t, err)
		assert.Equal(t, testutil.TestGenre, got.Entity)
		assert.False(t, got.Created)
		ms.AssertNotCalled(t, "CreateGenre", mock.Anything, mock.Anything)
	})

	t.Run("missing genre is created", func(t *testing.T) {
		ms := new(mockStore)
		r := NewResolver(ms, testutil.DiscardLogger())

		ms.On("FindGenre", ctx, "Poetry").Return(entity.Genre{}, ErrNotFound)
		ms.On("CreateGenre", ctx, mock.MatchedBy(func(g *entity.Genre) bool {
			return g.Name == "Poetry"
		})).Run(assignID("new-genre")).Return(nil)

		got, err := r.ResolveGenre(ctx, "Poetry")
		require.NoError(t, err)
		assert.True(t, got.Created)
		assert.Equal(t, "new-genre", got.Entity.ID)
	})

	t.Run("conflict followed by failing reread", func(t *testing.T) {
		ms := new(mockStore)
		r := NewResolver(ms, testutil.DiscardLogger())
		dbErr := errors.New("timeout")

		ms.On("FindGenre", ctx, "Poetry").Return(entity.Genre{}, ErrNotFound).Once()
		ms.On("CreateGenre", ctx, mock.Anything).Return(ErrConflict)
		ms.On("FindGenre", ctx, "Poetry").Return(entity.Genre{}, dbErr).Once()

		_, err := r.ResolveGenre(ctx, "Poetry")
		var pe *PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.ErrorIs(t, err, dbErr)
	})
}
