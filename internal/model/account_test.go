package model

import (
	"reflect"
	"testing"
)

func TestAccount_RoleList(t *testing.T) {
	tests := []struct {
		name  string
		roles string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "admin", []string{"admin"}},
		{"multiple", "admin,editor", []string{"admin", "editor"}},
		{"whitespace and empties", " admin , ,editor ", []string{"admin", "editor"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Roles: tt.roles}
			if got := a.RoleList(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RoleList() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccount_HasAnyRole(t *testing.T) {
	a := &Account{Roles: "editor,subscriber"}

	if !a.HasAnyRole(nil) {
		t.Error("empty allow-list should match every account")
	}
	if !a.HasAnyRole([]string{"admin", "editor"}) {
		t.Error("one shared role should be enough")
	}
	if a.HasAnyRole([]string{"admin"}) {
		t.Error("no shared role should not match")
	}

	none := &Account{}
	if none.HasAnyRole([]string{"admin"}) {
		t.Error("account without roles should not match a non-empty allow-list")
	}
}

func TestAccount_HasPassword(t *testing.T) {
	hash := "bcrypt-hash"
	empty := ""

	if (&Account{}).HasPassword() {
		t.Error("nil hash should report no password")
	}
	if (&Account{PasswordHash: &empty}).HasPassword() {
		t.Error("empty hash should report no password")
	}
	if !(&Account{PasswordHash: &hash}).HasPassword() {
		t.Error("non-empty hash should report a password")
	}
}
