package entity

// Author is looked up by the exact (FamilyName, FirstName) pair.
type Author struct {
	ID         string `json:"id"`
	FamilyName string `json:"familyName"`
	FirstName  string `json:"firstName"`
}

// Name is the display name used in book details: "Family, First".
func (a Author) Name() string {
	switch {
	case a.FamilyName != "" && a.FirstName != "":
		return a.FamilyName + ", " + a.FirstName
	case a.FamilyName != "":
		return a.FamilyName
	default:
		return a.FirstName
	}
}
