package utils

import "github.com/google/uuid"

// UUIDGenerator produces time-ordered identifiers for records, backups, and
// queue items. UUIDv7 keeps ids sortable by creation time; v4 is the fallback
// when the monotonic source fails.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
