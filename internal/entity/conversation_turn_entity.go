package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConversationTurn is one prior turn of a session's append-only history.
// Session ids are opaque strings assigned by the gateway, not necessarily
// UUIDs.
type ConversationTurn struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId string    `gorm:"index"`
	Role      string // "user", "assistant", "system"
	Content   string
	CreatedAt time.Time
}
