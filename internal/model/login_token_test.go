package model

import (
	"testing"
	"time"
)

func TestLoginToken_IsPending(t *testing.T) {
	tests := []struct {
		name  string
		token LoginToken
		want  bool
	}{
		{
			name:  "issued and valid",
			token: LoginToken{Status: TokenStatusIssued, ValidUntil: time.Now().Add(time.Minute)},
			want:  true,
		},
		{
			name:  "issued but expired",
			token: LoginToken{Status: TokenStatusIssued, ValidUntil: time.Now().Add(-time.Minute)},
			want:  false,
		},
		{
			name:  "used",
			token: LoginToken{Status: TokenStatusUsed, ValidUntil: time.Now().Add(time.Minute)},
			want:  false,
		},
		{
			name:  "already authenticated",
			token: LoginToken{Status: TokenStatusAlreadyAuthenticated, ValidUntil: time.Now().Add(time.Minute)},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.IsPending(); got != tt.want {
				t.Errorf("IsPending() = %v, want %v", got, tt.want)
			}
		})
	}
}
