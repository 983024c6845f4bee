package model

import (
	"strings"
	"time"
)

type Account struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	DisplayName  string    `db:"display_name"`
	PasswordHash *string   `db:"password_hash"` // Nullable for passwordless accounts
	Roles        string    `db:"roles"`         // Comma-separated role names
	CreatedAt    time.Time `db:"created_at"`
}

func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// RoleList splits the stored roles column into individual role names.
func (a *Account) RoleList() []string {
	if a.Roles == "" {
		return nil
	}
	parts := strings.Split(a.Roles, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

// HasAnyRole reports whether the account holds at least one of the given
// roles. An empty allow-list matches every account.
func (a *Account) HasAnyRole(allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, role := range a.RoleList() {
		for _, want := range allowed {
			if role == want {
				return true
			}
		}
	}
	return false
}
