package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted credential record.
//
// Username is stored lower-case; callers should run identifiers through
// NormalizeUsername before comparing. Username and email uniqueness is only
// enforced against non-deleted rows, so the backing table must not carry a
// plain unique constraint on either column (a partial index over
// "deleted_at IS NULL" is the expected shape).
type User struct {
	bun.BaseModel      `bun:"table:users,alias:usr"`
	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email              string     `bun:"email,notnull" json:"email,omitempty"`
	Username           string     `bun:"username,notnull" json:"username,omitempty"`
	FullName           string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	Role               UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	PasswordHash       string     `bun:"password_hash,notnull" json:"-"`
	IsActive           bool       `bun:"is_active,notnull" json:"is_active"`
	MustChangePassword bool       `bun:"must_change_password,notnull" json:"must_change_password"`
	LastLoginAt        *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt          *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the record has been soft deleted.
func (u *User) IsDeleted() bool {
	return u != nil && u.DeletedAt != nil
}

// CanAuthenticate reports whether the record is eligible to log in.
func (u *User) CanAuthenticate() bool {
	return u != nil && u.IsActive && !u.IsDeleted()
}

// Public returns the boundary representation of the record. It never carries
// the password hash.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:                 u.ID,
		Email:              u.Email,
		Username:           u.Username,
		FullName:           u.FullName,
		Role:               u.Role,
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

// PublicUser is the identity payload handed to transports and collaborators.
type PublicUser struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	Username           string     `json:"username"`
	FullName           string     `json:"full_name"`
	Role               UserRole   `json:"role"`
	IsActive           bool       `json:"is_active"`
	MustChangePassword bool       `json:"must_change_password"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}
