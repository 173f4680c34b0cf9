package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"librarycatalog/internal/book"
	"librarycatalog/internal/config"
	"librarycatalog/internal/entity"
	"librarycatalog/internal/logger"
	"librarycatalog/internal/store"
)

//go:embed catalog.json
var defaultCatalog []byte

type seedCopy struct {
	Imprint     string                `json:"imprint"`
	Status      entity.InstanceStatus `json:"status"`
	DueBackDays int                   `json:"dueBackDays"`
}

type seedExtras struct {
	ExtraGenres []string   `json:"extraGenres"`
	Copies      []seedCopy `json:"copies"`
}

func main() {
	file := flag.String("file", "", "JSON seed file (defaults to the built-in catalog)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Environment: cfg.Env, Level: logger.ParseLevel(cfg.LogLevel)})

	data := defaultCatalog
	if *file != "" {
		if data, err = os.ReadFile(*file); err != nil {
			log.Error("read seed file", "file", *file, "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	catalog, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open store", "error", err)
		os.Exit(1)
	}
	defer catalog.Close()

	ids, err := seed(ctx, catalog, log, data, time.Now())
	if err != nil {
		log.Error("seed failed", "seeded", len(ids), "error", err)
		catalog.Close()
		os.Exit(1)
	}
	log.Info("seed complete", "books", len(ids))
}

// seed creates every book in data and returns the new book ids. Authors and
// genres are resolved, so running it twice reuses them; books and copies are
// created again.
func seed(ctx context.Context, catalog store.Catalog, log *slog.Logger, data []byte, now time.Time) ([]string, error) {
	var entries []jsoniter.RawMessage
	if err := jsoniter.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}

	service := book.NewService(catalog, log)
	resolver := service.Resolver()

	ids := make([]string, 0, len(entries))
	for i, raw := range entries {
		req, err := book.ParseCreateRequest(raw)
		if err != nil {
			return ids, fmt.Errorf("entry %d: %w", i, err)
		}
		var extras seedExtras
		if err := jsoniter.Unmarshal(raw, &extras); err != nil {
			return ids, fmt.Errorf("entry %d: %w", i, err)
		}
		genreNames := make([]string, 0, 1+len(extras.ExtraGenres))
		genreNames = append(genreNames, req.GenreName)
		for _, name := range extras.ExtraGenres {
			name, err := book.ValidateGenreName(name)
			if err != nil {
				return ids, fmt.Errorf("entry %d: extraGenres: %w", i, err)
			}
			genreNames = append(genreNames, name)
		}

		author, err := resolver.ResolveAuthor(ctx, req.FamilyName, req.FirstName)
		if err != nil {
			return ids, err
		}
		genres := make([]entity.Genre, 0, len(genreNames))
		for _, name := range genreNames {
			genre, err := resolver.ResolveGenre(ctx, name)
			if err != nil {
				return ids, err
			}
			genres = append(genres, genre.Entity)
		}

		created, err := service.CreateBook(ctx, req, author.Entity, genres)
		if err != nil {
			return ids, err
		}

		for _, c := range extras.Copies {
			if !c.Status.Valid() {
				return ids, fmt.Errorf("entry %d: invalid copy status %q", i, c.Status)
			}
			inst := &entity.BookInstance{BookID: created.ID, Imprint: c.Imprint, Status: c.Status}
			if c.DueBackDays > 0 {
				due := now.AddDate(0, 0, c.DueBackDays)
				inst.DueBack = &due
			}
			if err := catalog.CreateInstance(ctx, inst); err != nil {
				return ids, fmt.Errorf("entry %d: create copy: %w", i, err)
			}
		}
		ids = append(ids, created.ID)
	}
	return ids, nil
}
