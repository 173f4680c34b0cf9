package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"librarycatalog/internal/book"
	"librarycatalog/internal/entity"
)

const (
	collAuthors       = "authors"
	collGenres        = "genres"
	collBooks         = "books"
	collBookInstances = "bookinstances"
)

type authorDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	FamilyName string             `bson:"family_name"`
	FirstName  string             `bson:"first_name"`
}

type genreDoc struct {
	ID   primitive.ObjectID `bson:"_id"`
	Name string             `bson:"name"`
}

type bookDoc struct {
	ID      primitive.ObjectID   `bson:"_id"`
	Title   string               `bson:"title"`
	Summary string               `bson:"summary,omitempty"`
	ISBN    string               `bson:"isbn,omitempty"`
	Author  primitive.ObjectID   `bson:"author"`
	Genre   []primitive.ObjectID `bson:"genre"`
}

type instanceDoc struct {
	ID      primitive.ObjectID `bson:"_id"`
	Book    primitive.ObjectID `bson:"book"`
	Imprint string             `bson:"imprint"`
	Status  string             `bson:"status"`
	DueBack *time.Time         `bson:"due_back,omitempty"`
}

// CatalogMongo stores the catalog in MongoDB, one collection per entity.
// Call EnsureIndexes once so natural keys are unique.
type CatalogMongo struct {
	client    *mongo.Client
	authors   *mongo.Collection
	genres    *mongo.Collection
	books     *mongo.Collection
	instances *mongo.Collection
	timeout   time.Duration
}

func NewCatalogMongo(db *mongo.Database, timeout time.Duration) *CatalogMongo {
	return &CatalogMongo{
		client:    db.Client(),
		authors:   db.Collection(collAuthors),
		genres:    db.Collection(collGenres),
		books:     db.Collection(collBooks),
		instances: db.Collection(collBookInstances),
		timeout:   timeout,
	}
}

func (s *CatalogMongo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// EnsureIndexes creates the unique natural key indexes and the copies lookup
// index. It is safe to call on every start.
func (s *CatalogMongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.authors.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "family_name", Value: 1}, {Key: "first_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("authors index: %w", err)
	}
	if _, err := s.genres.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("genres index: %w", err)
	}
	if _, err := s.instances.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "book", Value: 1}},
	}); err != nil {
		return fmt.Errorf("bookinstances index: %w", err)
	}
	return nil
}

func (s *CatalogMongo) FindAuthor(ctx context.Context, familyName, firstName string) (entity.Author, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc authorDoc
	err := s.authors.FindOne(ctx, bson.D{
		{Key: "family_name", Value: familyName},
		{Key: "first_name", Value: firstName},
	}).Decode(&doc)
	if err != nil {
		return entity.Author{}, notFound(err)
	}
	return doc.entity(), nil
}

func (s *CatalogMongo) CreateAuthor(ctx context.Context, a *entity.Author) error {
	doc := authorDoc{ID: primitive.NewObjectID(), FamilyName: a.FamilyName, FirstName: a.FirstName}
	if err := s.insert(ctx, s.authors, doc); err != nil {
		return err
	}
	a.ID = doc.ID.Hex()
	return nil
}

func (s *CatalogMongo) FindGenre(ctx context.Context, name string) (entity.Genre, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc genreDoc
	if err := s.genres.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&doc); err != nil {
		return entity.Genre{}, notFound(err)
	}
	return entity.Genre{ID: doc.ID.Hex(), Name: doc.Name}, nil
}

func (s *CatalogMongo) CreateGenre(ctx context.Context, g *entity.Genre) error {
	doc := genreDoc{ID: primitive.NewObjectID(), Name: g.Name}
	if err := s.insert(ctx, s.genres, doc); err != nil {
		return err
	}
	g.ID = doc.ID.Hex()
	return nil
}

func (s *CatalogMongo) CreateBook(ctx context.Context, b *entity.Book) error {
	authorID, err := primitive.ObjectIDFromHex(b.AuthorID)
	if err != nil {
		return fmt.Errorf("author id %q: %w", b.AuthorID, err)
	}
	genres := make([]primitive.ObjectID, 0, len(b.GenreIDs))
	for _, id := range b.GenreIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return fmt.Errorf("genre id %q: %w", id, err)
		}
		genres = append(genres, oid)
	}

	doc := bookDoc{
		ID:      primitive.NewObjectID(),
		Title:   b.Title,
		Summary: b.Summary,
		ISBN:    b.ISBN,
		Author:  authorID,
		Genre:   genres,
	}
	if err := s.insert(ctx, s.books, doc); err != nil {
		return err
	}
	b.ID = doc.ID.Hex()
	return nil
}

// GetBook loads the book and then its author. A dangling author reference
// leaves Author nil.
func (s *CatalogMongo) GetBook(ctx context.Context, id string) (entity.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return entity.Book{}, book.ErrNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc bookDoc
	if err := s.books.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return entity.Book{}, notFound(err)
	}

	b := entity.Book{
		ID:       doc.ID.Hex(),
		Title:    doc.Title,
		Summary:  doc.Summary,
		ISBN:     doc.ISBN,
		AuthorID: doc.Author.Hex(),
		GenreIDs: make([]string, 0, len(doc.Genre)),
	}
	for _, g := range doc.Genre {
		b.GenreIDs = append(b.GenreIDs, g.Hex())
	}

	var author authorDoc
	err = s.authors.FindOne(ctx, bson.D{{Key: "_id", Value: doc.Author}}).Decode(&author)
	switch {
	case err == nil:
		a := author.entity()
		b.Author = &a
	case !errors.Is(err, mongo.ErrNoDocuments):
		return entity.Book{}, fmt.Errorf("populate author: %w", err)
	}
	return b, nil
}

func (s *CatalogMongo) ListInstances(ctx context.Context, bookID string) ([]entity.BookInstance, error) {
	oid, err := primitive.ObjectIDFromHex(bookID)
	if err != nil {
		return []entity.BookInstance{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.instances.Find(ctx, bson.D{{Key: "book", Value: oid}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []instanceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	instances := make([]entity.BookInstance, 0, len(docs))
	for _, d := range docs {
		instances = append(instances, entity.BookInstance{
			ID:      d.ID.Hex(),
			BookID:  d.Book.Hex(),
			Imprint: d.Imprint,
			Status:  entity.InstanceStatus(d.Status),
			DueBack: d.DueBack,
		})
	}
	return instances, nil
}

func (s *CatalogMongo) CreateInstance(ctx context.Context, inst *entity.BookInstance) error {
	bookID, err := primitive.ObjectIDFromHex(inst.BookID)
	if err != nil {
		return fmt.Errorf("book id %q: %w", inst.BookID, err)
	}
	doc := instanceDoc{
		ID:      primitive.NewObjectID(),
		Book:    bookID,
		Imprint: inst.Imprint,
		Status:  string(inst.Status),
		DueBack: inst.DueBack,
	}
	if err := s.insert(ctx, s.instances, doc); err != nil {
		return err
	}
	inst.ID = doc.ID.Hex()
	return nil
}

func (s *CatalogMongo) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *CatalogMongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *CatalogMongo) insert(ctx context.Context, coll *mongo.Collection, doc any) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", coll.Name(), book.ErrConflict)
		}
		return err
	}
	return nil
}

func (d authorDoc) entity() entity.Author {
	return entity.Author{ID: d.ID.Hex(), FamilyName: d.FamilyName, FirstName: d.FirstName}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return book.ErrNotFound
	}
	return err
}
