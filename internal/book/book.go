// Package book holds the catalog core: request validation, author and genre
// resolution, book creation and the book detail lookup.
package book

import "librarycatalog/internal/entity"

// CreatedBook is the response body of a successful create, with the author and
// genres expanded.
type CreatedBook struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Summary string         `json:"summary"`
	ISBN    string         `json:"isbn"`
	Author  entity.Author  `json:"author"`
	Genre   []entity.Genre `json:"genre"`
}

// Copy is the public projection of a BookInstance.
type Copy struct {
	Imprint string                `json:"imprint"`
	Status  entity.InstanceStatus `json:"status"`
}

// Details is the response body of a book detail lookup. Author is the
// flattened author name.
type Details struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Copies []Copy `json:"copies"`
}

func detailsOf(b entity.Book, instances []entity.BookInstance) Details {
	d := Details{
		Title:  b.Title,
		Copies: make([]Copy, 0, len(instances)),
	}
	if b.Author != nil {
		d.Author = b.Author.Name()
	}
	for _, inst := range instances {
		d.Copies = append(d.Copies, Copy{Imprint: inst.Imprint, Status: inst.Status})
	}
	return d
}
