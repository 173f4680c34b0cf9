package book

import (
	"regexp"
	"strings"
)

// ID is a book id that passed ParseID and is safe to hand to a Store as is.
type ID string

var idPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// ParseID trims raw and checks it against the id format. Anything outside the
// lowercase hex alphabet, markup included, is rejected here.
func ParseID(raw string) (ID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", &RejectedError{Field: "id", Reason: ErrEmptyInput}
	}
	if !idPattern.MatchString(id) {
		return "", &RejectedError{Field: "id", Reason: ErrMalformedID}
	}
	return ID(id), nil
}

func (id ID) String() string { return string(id) }
