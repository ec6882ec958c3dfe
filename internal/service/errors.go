package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the trainer record does not exist
	ErrNotFound = errors.New("trainer not found")
	// ErrAlreadyExists is returned by CreateNew when the derived id is taken
	ErrAlreadyExists = errors.New("trainer already exists")
	// ErrNoActiveTrainer means no trainer is loaded
	ErrNoActiveTrainer = errors.New("no active trainer")
	// ErrWrongQuestKind means the quest needs a different submission method
	ErrWrongQuestKind = errors.New("wrong submission type for quest")
)

// PersistenceError wraps a gateway failure during a mutation. The in-memory
// state already reflects the mutation and is not rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err carries a PersistenceError
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
