package entity

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24 character lowercase hex identifier. Every store uses
// it so ids look the same whichever backend is configured.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
