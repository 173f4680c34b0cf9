package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"

	"librarycatalog/internal/book"
	"librarycatalog/internal/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Key layout:
//
//	author:{id}                          -> Author
//	genre:{id}                           -> Genre
//	book:{id}                            -> Book
//	instance:{bookID}:{id}               -> BookInstance
//	idx:author:name:{len(family)}:{family}{first} -> author id
//	idx:genre:name:{name}                -> genre id
const (
	authorPrefix     = "author:"
	genrePrefix      = "genre:"
	bookPrefix       = "book:"
	instancePrefix   = "instance:"
	authorNamePrefix = "idx:author:name:"
	genreNamePrefix  = "idx:genre:name:"
)

// CatalogBadger is the embedded backend. Name index keys play the role of
// unique indexes: a second create for the same natural key fails with
// book.ErrConflict.
type CatalogBadger struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenCatalogBadger opens the database at path. An empty path opens an
// in-memory database.
func OpenCatalogBadger(path string, logger *slog.Logger) (*CatalogBadger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	if logger != nil {
		logger.Info("badger database opened", "path", path, "in_memory", path == "")
	}
	return &CatalogBadger{db: db, logger: logger}, nil
}

// authorNameKey length-prefixes the family name so no two name pairs share a
// key, whatever bytes the names contain.
func authorNameKey(familyName, firstName string) []byte {
	return fmt.Appendf(nil, "%s%d:%s%s", authorNamePrefix, len(familyName), familyName, firstName)
}

func genreNameKey(name string) []byte {
	return []byte(genreNamePrefix + name)
}

func (s *CatalogBadger) FindAuthor(ctx context.Context, familyName, firstName string) (entity.Author, error) {
	var a entity.Author
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := getString(txn, authorNameKey(familyName, firstName))
		if err != nil {
			return err
		}
		return getValue(txn, []byte(authorPrefix+id), &a)
	})
	if err != nil {
		return entity.Author{}, translateBadger(err)
	}
	return a, nil
}

func (s *CatalogBadger) CreateAuthor(ctx context.Context, a *entity.Author) error {
	created := entity.Author{ID: entity.NewID(), FamilyName: a.FamilyName, FirstName: a.FirstName}
	err := s.createUnique(authorNameKey(a.FamilyName, a.FirstName), []byte(authorPrefix+created.ID), created.ID, created)
	if err != nil {
		return err
	}
	a.ID = created.ID
	return nil
}

func (s *CatalogBadger) FindGenre(ctx context.Context, name string) (entity.Genre, error) {
	var g entity.Genre
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := getString(txn, genreNameKey(name))
		if err != nil {
			return err
		}
		return getValue(txn, []byte(genrePrefix+id), &g)
	})
	if err != nil {
		return entity.Genre{}, translateBadger(err)
	}
	return g, nil
}

func (s *CatalogBadger) CreateGenre(ctx context.Context, g *entity.Genre) error {
	created := entity.Genre{ID: entity.NewID(), Name: g.Name}
	if err := s.createUnique(genreNameKey(g.Name), []byte(genrePrefix+created.ID), created.ID, created); err != nil {
		return err
	}
	g.ID = created.ID
	return nil
}

func (s *CatalogBadger) CreateBook(ctx context.Context, b *entity.Book) error {
	stored := *b
	stored.ID = entity.NewID()
	stored.Author = nil

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal book: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(bookPrefix+stored.ID), data)
	})
	if err != nil {
		return fmt.Errorf("create book: %w", translateBadger(err))
	}
	b.ID = stored.ID
	return nil
}

func (s *CatalogBadger) GetBook(ctx context.Context, id string) (entity.Book, error) {
	var b entity.Book
	err := s.db.View(func(txn *badger.Txn) error {
		if err := getValue(txn, []byte(bookPrefix+id), &b); err != nil {
			return err
		}
		var a entity.Author
		err := getValue(txn, []byte(authorPrefix+b.AuthorID), &a)
		switch {
		case err == nil:
			b.Author = &a
		case !errors.Is(err, badger.ErrKeyNotFound):
			return fmt.Errorf("populate author: %w", err)
		}
		return nil
	})
	if err != nil {
		return entity.Book{}, translateBadger(err)
	}
	return b, nil
}

// ListInstances returns the copies of a book in creation order; ids are
// time ordered so key order is creation order.
func (s *CatalogBadger) ListInstances(ctx context.Context, bookID string) ([]entity.BookInstance, error) {
	instances := []entity.BookInstance{}
	prefix := []byte(instancePrefix + bookID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var inst entity.BookInstance
				if err := json.Unmarshal(val, &inst); err != nil {
					return err
				}
				instances = append(instances, inst)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return instances, nil
}

func (s *CatalogBadger) CreateInstance(ctx context.Context, inst *entity.BookInstance) error {
	stored := *inst
	stored.ID = entity.NewID()

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal instance: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(instancePrefix+stored.BookID+":"+stored.ID), data)
	})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	inst.ID = stored.ID
	return nil
}

func (s *CatalogBadger) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

func (s *CatalogBadger) Close() error {
	if s.logger != nil {
		s.logger.Info("closing badger database")
	}
	return s.db.Close()
}

// createUnique writes value under key together with its name index entry in
// one transaction. An existing index entry, or a concurrent transaction that
// wrote it first, is a conflict.
func (s *CatalogBadger) createUnique(indexKey, key []byte, id string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(indexKey)
		if err == nil {
			return book.ErrConflict
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(indexKey, []byte(id))
	})
	return translateBadger(err)
}

func getValue(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

func getString(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func translateBadger(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return book.ErrNotFound
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %w", book.ErrConflict, err)
	default:
		return err
	}
}
