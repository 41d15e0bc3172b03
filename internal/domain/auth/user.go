package auth

import (
	"strings"
	"time"
)

// Role represents user roles in the system
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID                string    `json:"id" bson:"_id"`
	Name              string    `json:"name" bson:"name"`
	Email             string    `json:"email" bson:"email"`
	Photo             string    `json:"photo" bson:"photo"`
	Role              Role      `json:"role" bson:"role"`
	PasswordHash      string    `json:"-" bson:"password"`
	PasswordChangedAt time.Time `json:"-" bson:"passwordChangedAt,omitempty"`
	Active            bool      `json:"active" bson:"active"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Snapshot is the token-safe view of a user. It carries no secret fields.
type Snapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Photo string `json:"photo,omitempty"`
}

// Snapshot returns the token-safe view of the user
func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Photo: u.Photo,
	}
}

// HasRole reports whether the snapshot role is one of roles
func (s Snapshot) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignupRequest represents a request to create an account
type SignupRequest struct {
	Name            string `json:"name" binding:"required,max=80"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdatePasswordRequest represents a password change by the account owner
type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// UserCreateRequest represents an admin request to create a new user
type UserCreateRequest struct {
	Name     string `json:"name" binding:"required,max=80"`
	Email    string `json:"email" binding:"required,email"`
	Role     Role   `json:"role" binding:"required,oneof=user guide lead-guide admin"`
	Password string `json:"password" binding:"required,min=8"`
}

// UserUpdateRequest represents a partial user update.
// Role and Active are only honored on the admin endpoints.
type UserUpdateRequest struct {
	Name   *string `json:"name,omitempty" binding:"omitempty,max=80"`
	Email  *string `json:"email,omitempty" binding:"omitempty,email"`
	Role   *Role   `json:"role,omitempty" binding:"omitempty,oneof=user guide lead-guide admin"`
	Active *bool   `json:"active,omitempty"`
}
