package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by single-row lookups that match nothing
var ErrNotFound = errors.New("record not found")

// IsNotFoundError matches both ErrNotFound and gorm's own sentinel
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports a unique constraint violation
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
