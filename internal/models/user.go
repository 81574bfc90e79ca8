package models

import "time"

// Roles form the single role model used across the service: admins see
// everything, facilitators author trivias, participants play them.
const (
	RoleAdmin       = "admin"
	RoleFacilitator = "facilitator"
	RoleParticipant = "participant"
)

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	IsVerified   bool      `bson:"is_verified" json:"is_verified"`
	LastLogin    time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleFacilitator, RoleParticipant:
		return true
	}
	return false
}

// CanCreateTrivia reports whether the role may author trivias.
func CanCreateTrivia(role string) bool {
	return role == RoleAdmin || role == RoleFacilitator
}
