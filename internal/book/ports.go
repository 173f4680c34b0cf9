package book

import (
	"context"

	"librarycatalog/internal/entity"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks librarycatalog/internal/book Store

// Store is the persistence collaborator of the catalog core. Lookups that
// match nothing return ErrNotFound; creates that hit a unique key return
// ErrConflict. Create methods assign the entity ID.
type Store interface {
	FindAuthor(ctx context.Context, familyName, firstName string) (entity.Author, error)
	CreateAuthor(ctx context.Context, author *entity.Author) error
	FindGenre(ctx context.Context, name string) (entity.Genre, error)
	CreateGenre(ctx context.Context, genre *entity.Genre) error
	CreateBook(ctx context.Context, book *entity.Book) error
	// GetBook returns the book with its Author populated when the author exists.
	GetBook(ctx context.Context, id string) (entity.Book, error)
	ListInstances(ctx context.Context, bookID string) ([]entity.BookInstance, error)
}
