package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. Emails are stored lowercased; the password hash
// never leaves the persistence boundary.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// authIdentity adapts a stored User to the Identity interface
type authIdentity struct {
	id    string
	email string
	role  string
}

func (a authIdentity) ID() string    { return a.id }
func (a authIdentity) Email() string { return a.email }
func (a authIdentity) Role() string  { return a.role }

func identityFromUser(user *User) Identity {
	return authIdentity{
		id:    user.ID.String(),
		email: user.Email,
		role:  RoleUser,
	}
}
