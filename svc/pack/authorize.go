package pack

import "github.com/google/uuid"

type Action string

const (
	ActionView          Action = "view"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionManageStreams Action = "manage_streams"
)

// Authorize decides whether actor may perform action on p. uuid.Nil is an
// anonymous visitor. Private packs are reported as missing to everyone but
// their owner.
func Authorize(actor uuid.UUID, p Pack, action Action) error {
	owner := actor != uuid.Nil && actor == p.OwnerID
	if owner {
		return nil
	}
	if p.Visibility != Public {
		return ErrNotFound
	}
	if action == ActionView {
		return nil
	}
	if actor == uuid.Nil {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
