package user

import (
	"strconv"
	"strings"
)

const (
	NameMinLen     = 3
	NameMaxLen     = 50
	PasswordMinLen = 5
	PasswordMaxLen = 50
)

// User is a row of the users table.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"-"` // never expose hash in JSON
	RoleID       int64  `json:"roleId"`
}

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Identity is the authenticated view of a user. It lives for one operation
// and is never persisted.
type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Subject is the token "sub" encoding of the identity id.
func (i Identity) Subject() string {
	return strconv.FormatInt(i.ID, 10)
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Profile is what the current-user endpoint returns.
type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (i Identity) Profile() Profile {
	return Profile{Email: i.Email, Name: i.Name}
}

// Listing is one row of the administrative user listing.
type Listing struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Patch updates name and/or email. A nil field keeps the stored value.
type Patch struct {
	Name  *string `json:"new_name,omitempty"`
	Email *string `json:"new_email,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil
}

// NormalizeEmail trims and lower-cases an address before it reaches the store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
