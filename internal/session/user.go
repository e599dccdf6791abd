package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Role is a named permission bundle. A nil Permissions slice means the
// permission set is absent, which is different from an empty one.
type Role struct {
	Key         string   `json:"key" validate:"required"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

// User is the authenticated user's profile
type User struct {
	ID       string `json:"id" validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Role     *Role  `json:"role,omitempty"`
}

// HasPermission reports whether the user's role grants every permission in
// required. An empty required list is satisfied by any user whose role
// carries a permission set.
func (u *User) HasPermission(required ...string) bool {
	if u == nil || u.Role == nil || u.Role.Permissions == nil {
		return false
	}

	for _, p := range required {
		if !slices.Contains(u.Role.Permissions, p) {
			return false
		}
	}
	return true
}

// HasRole reports whether the user's role key equals roleKey exactly
func (u *User) HasRole(roleKey string) bool {
	if u == nil || u.Role == nil {
		return false
	}
	return u.Role.Key == roleKey
}

// clone returns a deep copy so callers never share the role with the provider
func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Role != nil {
		role := *u.Role
		role.Permissions = slices.Clone(u.Role.Permissions)
		c.Role = &role
	}
	return &c
}

// Validate checks the user against its struct tags
func (u *User) Validate() error {
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return nil
}

// userPayload is the wire shape of a user. The API sends the identifier as
// "id", "_id" or both.
type userPayload struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     *Role  `json:"role"`
	Token    string `json:"token"`
}

func (p userPayload) user() User {
	id := p.ID
	if id == "" {
		id = p.LegacyID
	}
	return User{
		ID:       id,
		Username: p.Username,
		Email:    p.Email,
		Role:     p.Role,
	}
}

// ParseUser parses a profile payload. A null or empty payload yields a nil
// user and no error.
func ParseUser(data []byte) (*User, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var payload userPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	user := payload.user()
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return &user, nil
}

// Credentials is the payload handed to Login: the credential plus the user
// it belongs to.
type Credentials struct {
	Token string
	User  User
}

// ParseCredentials parses a flat sign-in response of the form
// {"id", "username", "email", "role", "token"}.
func ParseCredentials(data []byte) (*Credentials, error) {
	var payload userPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse sign-in response: %w", err)
	}

	if payload.Token == "" {
		return nil, ErrEmptyCredential
	}

	user := payload.user()
	if err := user.Validate(); err != nil {
		return nil, err
	}

	return &Credentials{Token: payload.Token, User: user}, nil
}
