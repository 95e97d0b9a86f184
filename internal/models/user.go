package models

import (
	"time"

	"github.com/nkiryanov/sup/internal/objectid"
)

type User struct {
	ID objectid.ID

	// Insertion sequence assigned by the store. Defines list order
	Seq int64

	CreatedAt      time.Time
	Username       string
	HashedPassword string // empty value means the user can't authenticate
}

// Fields the client may set on create or replace
// Nil pointer means the field was not sent
type UserFields struct {
	ID       *objectid.ID
	Username string
	Password *string
}

type ReplaceStatus int

const (
	Updated ReplaceStatus = iota
	Created
)

func (s ReplaceStatus) String() string {
	switch s {
	case Created:
		return "created"
	default:
		return "updated"
	}
}

// Public projection of the user. Password hash never leaves the service
type UserResponse struct {
	ID       objectid.ID `json:"id"`
	Username string      `json:"username"`
}

func (u User) Response() UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}
