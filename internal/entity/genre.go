package entity

// Genre is looked up by its exact name.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
