package book

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"librarycatalog/internal/entity"
)

// Service provides the book create and detail use cases.
type Service struct {
	store    Store
	resolver *Resolver
	logger   *slog.Logger
}

// NewService creates a new book service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		resolver: NewResolver(store, logger),
		logger:   logger,
	}
}

// Resolver returns the resolver the service creates books with.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Create resolves the author and genre named in req, then creates the book.
// Resolution and creation are separate store calls with no rollback: an author
// or genre created here survives a failed book save.
func (s *Service) Create(ctx context.Context, req CreateRequest) (CreatedBook, error) {
	author, err := s.resolver.ResolveAuthor(ctx, req.FamilyName, req.FirstName)
	if err != nil {
		return CreatedBook{}, s.creationFailed(req.BookTitle, err)
	}
	genre, err := s.resolver.ResolveGenre(ctx, req.GenreName)
	if err != nil {
		s.logOrphans(req.BookTitle, author, Resolved[entity.Genre]{})
		return CreatedBook{}, s.creationFailed(req.BookTitle, err)
	}

	created, err := s.CreateBook(ctx, req, author.Entity, []entity.Genre{genre.Entity})
	if err != nil {
		s.logOrphans(req.BookTitle, author, genre)
		return CreatedBook{}, err
	}
	return created, nil
}

// CreateBook persists a book referencing already resolved entities. Genres
// keep their order; a genre listed twice is kept at its first position.
func (s *Service) CreateBook(ctx context.Context, req CreateRequest, author entity.Author, genres []entity.Genre) (CreatedBook, error) {
	genres = uniqueGenres(genres)
	b := entity.Book{
		Title:    req.BookTitle,
		Summary:  req.Summary,
		ISBN:     req.ISBN,
		AuthorID: author.ID,
		GenreIDs: make([]string, 0, len(genres)),
	}
	for _, g := range genres {
		b.GenreIDs = append(b.GenreIDs, g.ID)
	}

	if err := s.store.CreateBook(ctx, &b); err != nil {
		return CreatedBook{}, s.creationFailed(req.BookTitle, &PersistenceError{Op: "create book", Err: err})
	}

	s.logger.Info("book created", "book_id", b.ID, "author_id", author.ID, "genres", len(genres))
	return CreatedBook{
		ID:      b.ID,
		Title:   b.Title,
		Summary: b.Summary,
		ISBN:    b.ISBN,
		Author:  author,
		Genre:   genres,
	}, nil
}

// uniqueGenres returns a fresh slice holding the first occurrence of each
// genre id.
func uniqueGenres(genres []entity.Genre) []entity.Genre {
	seen := make(map[string]struct{}, len(genres))
	out := make([]entity.Genre, 0, len(genres))
	for _, g := range genres {
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}
		out = append(out, g)
	}
	return out
}

// GetDetails fetches the book and its copies concurrently and joins them. A
// failure of either lookup fails the whole call; a missing book is reported
// only when both lookups succeeded.
func (s *Service) GetDetails(ctx context.Context, id ID) (Details, error) {
	var (
		b         entity.Book
		found     bool
		instances []entity.BookInstance
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b, err = s.store.GetBook(gctx, id.String())
		switch {
		case err == nil:
			found = true
			return nil
		case errors.Is(err, ErrNotFound):
			return nil
		default:
			return &PersistenceError{Op: "get book", Err: err}
		}
	})
	g.Go(func() error {
		var err error
		instances, err = s.store.ListInstances(gctx, id.String())
		if err != nil {
			return &PersistenceError{Op: "list book instances", Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("error fetching book", "book_id", id.String(), "error", err)
		return Details{}, &LookupError{ID: id, Err: err}
	}
	if !found {
		return Details{}, &NotFoundError{ID: id}
	}
	return detailsOf(b, instances), nil
}

func (s *Service) creationFailed(title string, err error) error {
	s.logger.Error("error creating book", "title", title, "error", err)
	return &CreationError{Title: title, Err: err}
}

func (s *Service) logOrphans(title string, author Resolved[entity.Author], genre Resolved[entity.Genre]) {
	var ids []string
	if author.Created {
		ids = append(ids, "author:"+author.Entity.ID)
	}
	if genre.Created {
		ids = append(ids, "genre:"+genre.Entity.ID)
	}
	if len(ids) > 0 {
		s.logger.Warn("book not saved, created records left without a book", "title", title, "records", ids)
	}
}
