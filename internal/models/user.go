package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	HashedPassword string
	Role           string
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
