package guardkit

import (
	"context"
	"fmt"
	"time"
)

// User is the identity record managed by the engine. PasswordHash is the
// PHC-encoded output of the password hasher; the plaintext never reaches
// storage. The zero value is not a valid user.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Verified     bool
	Admin        bool
	CreatedAt    time.Time
}

// UserPatch is a partial update of a user's mutable fields. Nil fields are
// left untouched. Email is deliberately absent: the login key cannot be
// changed through patching.
type UserPatch struct {
	PasswordHash *string
	Verified     *bool
	Admin        *bool
}

// CredentialStore is the persistent repository of user records that host
// applications plug into the engine. Implementations must enforce email
// uniqueness atomically: of two concurrent Create calls with the same
// normalized email, at most one succeeds and the other returns
// ErrEmailExists. Per-id writes must be serialized by the store and reads
// must observe committed state.
//
// Infrastructure failures are wrapped in ErrStoreUnavailable, never
// reported as ErrUserNotFound.
type CredentialStore interface {
	Create(ctx context.Context, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*User, error)
	Delete(ctx context.Context, id string) error
}

// SignupRequest carries the transient input of Signup. It is validated and
// discarded, never persisted.
type SignupRequest struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	PasswordConfirm string `validate:"required"`
}

// String redacts the password fields.
func (r SignupRequest) String() string {
	return fmt.Sprintf("SignupRequest{Email: %q, Password: *****}", r.Email)
}

// LoginRequest carries the transient input of Login.
type LoginRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// String redacts the password field.
func (r LoginRequest) String() string {
	return fmt.Sprintf("LoginRequest{Email: %q, Password: *****}", r.Email)
}
