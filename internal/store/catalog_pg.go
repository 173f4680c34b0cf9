package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"librarycatalog/internal/book"
	"librarycatalog/internal/entity"
)

const (
	dialectPostgres = "postgres"
	uniqueViolation = "23505"

	tableAuthors       = "authors"
	tableGenres        = "genres"
	tableBooks         = "books"
	tableBookGenres    = "book_genres"
	tableBookInstances = "book_instances"
)

// CatalogPG stores the catalog in PostgreSQL. The schema lives in
// db/migrations; natural keys are backed by unique indexes so concurrent
// creates surface as book.ErrConflict.
type CatalogPG struct {
	db      *pgxpool.Pool
	sql     goqu.DialectWrapper
	timeout time.Duration
}

func NewCatalogPG(db *pgxpool.Pool, timeout time.Duration) *CatalogPG {
	return &CatalogPG{db: db, sql: goqu.Dialect(dialectPostgres), timeout: timeout}
}

func (r *CatalogPG) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *CatalogPG) FindAuthor(ctx context.Context, familyName, firstName string) (entity.Author, error) {
	query, args, err := r.sql.From(tableAuthors).
		Select("id", "family_name", "first_name").
		Where(goqu.Ex{"family_name": familyName, "first_name": firstName}).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return entity.Author{}, fmt.Errorf("build find author query: %w", err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var a entity.Author
	err = r.db.QueryRow(ctx, query, args...).Scan(&a.ID, &a.FamilyName, &a.FirstName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Author{}, book.ErrNotFound
		}
		return entity.Author{}, err
	}
	return a, nil
}

func (r *CatalogPG) CreateAuthor(ctx context.Context, a *entity.Author) error {
	id := entity.NewID()
	err := r.insert(ctx, tableAuthors, goqu.Record{
		"id":          id,
		"family_name": a.FamilyName,
		"first_name":  a.FirstName,
	})
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (r *CatalogPG) FindGenre(ctx context.Context, name string) (entity.Genre, error) {
	query, args, err := r.sql.From(tableGenres).
		Select("id", "name").
		Where(goqu.Ex{"name": name}).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return entity.Genre{}, fmt.Errorf("build find genre query: %w", err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var g entity.Genre
	err = r.db.QueryRow(ctx, query, args...).Scan(&g.ID, &g.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Genre{}, book.ErrNotFound
		}
		return entity.Genre{}, err
	}
	return g, nil
}

func (r *CatalogPG) CreateGenre(ctx context.Context, g *entity.Genre) error {
	id := entity.NewID()
	if err := r.insert(ctx, tableGenres, goqu.Record{"id": id, "name": g.Name}); err != nil {
		return err
	}
	g.ID = id
	return nil
}

// CreateBook writes the book row and its ordered genre links in one
// transaction.
func (r *CatalogPG) CreateBook(ctx context.Context, b *entity.Book) error {
	id := entity.NewID()

	bookSQL, bookArgs, err := r.sql.Insert(tableBooks).Rows(goqu.Record{
		"id":        id,
		"title":     b.Title,
		"summary":   b.Summary,
		"isbn":      b.ISBN,
		"author_id": b.AuthorID,
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert book query: %w", err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, bookSQL, bookArgs...); err != nil {
		return fmt.Errorf("insert book: %w", translate(err))
	}

	if len(b.GenreIDs) > 0 {
		links := make([]any, 0, len(b.GenreIDs))
		for i, genreID := range b.GenreIDs {
			links = append(links, goqu.Record{"book_id": id, "genre_id": genreID, "position": i})
		}
		linkSQL, linkArgs, err := r.sql.Insert(tableBookGenres).Rows(links...).Prepared(true).ToSQL()
		if err != nil {
			return fmt.Errorf("build insert book genres query: %w", err)
		}
		if _, err := tx.Exec(ctx, linkSQL, linkArgs...); err != nil {
			return fmt.Errorf("insert book genres: %w", translate(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (r *CatalogPG) GetBook(ctx context.Context, id string) (entity.Book, error) {
	query, args, err := r.sql.From(goqu.T(tableBooks).As("b")).
		LeftJoin(goqu.T(tableAuthors).As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("b.author_id")))).
		Select("b.id", "b.title", "b.summary", "b.isbn", "b.author_id", "a.family_name", "a.first_name").
		Where(goqu.I("b.id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return entity.Book{}, fmt.Errorf("build get book query: %w", err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		b                     entity.Book
		familyName, firstName *string
	)
	err = r.db.QueryRow(ctx, query, args...).Scan(&b.ID, &b.Title, &b.Summary, &b.ISBN, &b.AuthorID, &familyName, &firstName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Book{}, book.ErrNotFound
		}
		return entity.Book{}, err
	}
	if familyName != nil && firstName != nil {
		b.Author = &entity.Author{ID: b.AuthorID, FamilyName: *familyName, FirstName: *firstName}
	}

	genreSQL, genreArgs, err := r.sql.From(tableBookGenres).
		Select("genre_id").
		Where(goqu.Ex{"book_id": id}).
		Order(goqu.I("position").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return entity.Book{}, fmt.Errorf("build book genres query: %w", err)
	}
	rows, err := r.db.Query(ctx, genreSQL, genreArgs...)
	if err != nil {
		return entity.Book{}, err
	}
	b.GenreIDs, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return entity.Book{}, err
	}
	return b, nil
}

func (r *CatalogPG) ListInstances(ctx context.Context, bookID string) ([]entity.BookInstance, error) {
	query, args, err := r.sql.From(tableBookInstances).
		Select("id", "book_id", "imprint", "status", "due_back").
		Where(goqu.Ex{"book_id": bookID}).
		Order(goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list instances query: %w", err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instances := []entity.BookInstance{}
	for rows.Next() {
		var (
			inst   entity.BookInstance
			status string
		)
		if err := rows.Scan(&inst.ID, &inst.BookID, &inst.Imprint, &status, &inst.DueBack); err != nil {
			return nil, err
		}
		inst.Status = entity.InstanceStatus(status)
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

// CreateInstance adds a copy of an existing book.
func (r *CatalogPG) CreateInstance(ctx context.Context, inst *entity.BookInstance) error {
	id := entity.NewID()
	err := r.insert(ctx, tableBookInstances, goqu.Record{
		"id":       id,
		"book_id":  inst.BookID,
		"imprint":  inst.Imprint,
		"status":   string(inst.Status),
		"due_back": inst.DueBack,
	})
	if err != nil {
		return err
	}
	inst.ID = id
	return nil
}

func (r *CatalogPG) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *CatalogPG) Close() error {
	r.db.Close()
	return nil
}

func (r *CatalogPG) insert(ctx context.Context, table string, record goqu.Record) error {
	query, args, err := r.sql.Insert(table).Rows(record).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert %s query: %w", table, err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return translate(err)
	}
	return nil
}

// translate maps unique index violations to book.ErrConflict.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, book.ErrConflict)
	}
	return err
}
