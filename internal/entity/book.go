package entity

// Book is a catalog title. It owns nothing and only references its author and
// genres by id; Author is populated by stores that resolve the reference on read.
type Book struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	ISBN     string   `json:"isbn"`
	AuthorID string   `json:"author_id"`
	GenreIDs []string `json:"genre_ids"`
	Author   *Author  `json:"-"`
}
