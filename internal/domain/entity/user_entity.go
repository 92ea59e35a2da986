package entity

import (
	"time"
)

// User is the aggregate root of the social graph.
// Username is the primary key and never changes after creation.
// Password holds a bcrypt hash; it is never rendered.
type User struct {
	Username  string
	Name      string
	Email     string
	Password  string
	Bio       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy safe to hand out of a store.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// UserPatch carries a partial profile edit. A nil or empty field is left
// unchanged, so a patch can never clear a value.
type UserPatch struct {
	Name  *string
	Email *string
	Bio   *string
}

// Apply copies the non-empty fields of p onto u and reports whether anything changed.
func (p UserPatch) Apply(u *User) bool {
	changed := false
	if p.Name != nil && *p.Name != "" && *p.Name != u.Name {
		u.Name = *p.Name
		changed = true
	}
	if p.Email != nil && *p.Email != "" && *p.Email != u.Email {
		u.Email = *p.Email
		changed = true
	}
	if p.Bio != nil && *p.Bio != "" && *p.Bio != u.Bio {
		u.Bio = *p.Bio
		changed = true
	}
	return changed
}

// IsEmpty reports whether the patch would leave every field unchanged.
func (p UserPatch) IsEmpty() bool {
	return (p.Name == nil || *p.Name == "") &&
		(p.Email == nil || *p.Email == "") &&
		(p.Bio == nil || *p.Bio == "")
}

// StringPtr is a small helper for building patches.
func StringPtr(s string) *string { return &s }
