package mutate

import (
	"errors"
	"fmt"
)

var (
	// ErrGestureActive rejects Committed-State-only edits while a drag is pending or live.
	ErrGestureActive     = errors.New("a drag is in progress")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrReservedCategory  = errors.New("category name is reserved")
	ErrEmptyName         = errors.New("name is empty")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
