package pack

import (
	"time"

	"github.com/google/uuid"
)

type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

type Pack struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	Tags        []string
	Visibility  Visibility
	ShareSlug   string
	Streams     []Stream
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Stream is a channel entry. DisplayOrder is not unique; ties keep insertion
// order.
type Stream struct {
	ID            uuid.UUID
	PackID        uuid.UUID
	ChannelName   string
	DisplayOrder  int
	OffsetSeconds int
	CreatedAt     time.Time
}
