package index

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's dimension does not
	// match the dimension established by the first indexed vector.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyVector is returned when an entry carries no embedding vector.
	ErrEmptyVector = errors.New("empty embedding vector")

	// ErrCorruptIndex is returned when persisted index files fail to load
	// or disagree with each other.
	ErrCorruptIndex = errors.New("corrupt index files")
)
