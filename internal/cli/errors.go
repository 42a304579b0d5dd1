package cli

import (
	"errors"
	"fmt"

	"packlist/internal/mutate"
	"packlist/internal/store"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// itemErr maps store lookups onto the CLI's not-found message.
func itemErr(err error, id string) error {
	var nf mutate.NotFoundError
	if errors.As(err, &nf) || errors.Is(err, store.ErrNotFound) {
		return errNotFound("item", id)
	}
	return err
}
