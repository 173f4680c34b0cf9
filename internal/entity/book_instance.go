package entity

import "time"

type InstanceStatus string

const (
	StatusAvailable  InstanceStatus = "Available"
	StatusLoaned     InstanceStatus = "Loaned"
	StatusMaintained InstanceStatus = "Maintained"
	StatusReserved   InstanceStatus = "Reserved"
)

func (s InstanceStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusLoaned, StatusMaintained, StatusReserved:
		return true
	}
	return false
}

// BookInstance is a physical copy of a Book.
type BookInstance struct {
	ID      string         `json:"id"`
	BookID  string         `json:"book_id"`
	Imprint string         `json:"imprint"`
	Status  InstanceStatus `json:"status"`
	DueBack *time.Time     `json:"due_back,omitempty"`
}
