package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is the identity boundary: the auth subsystem writes these rows,
// this engine only resolves tokens to a user id and email.
type Session struct {
	BaseSimple
	UserID    uuid.UUID `db:"user_id"`
	Email     string    `db:"email"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
}
