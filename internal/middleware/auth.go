package middleware

import (
	"net/http"

	"github.com/lumenauth/lumen/internal/ctxkeys"
	"github.com/lumenauth/lumen/internal/repository"
	"github.com/lumenauth/lumen/internal/service"
)

// AuthMiddleware checks for a session cookie and adds the account to the
// context if valid
func AuthMiddleware(sessions *service.SessionService, accounts repository.AccountRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				// No cookie, continue without auth
				next.ServeHTTP(w, r)
				return
			}

			claims, err := sessions.VerifyJWT(cookie.Value)
			if err != nil {
				// Invalid token, clear cookie and continue
				sessions.ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			accountID, ok := claims["account_id"].(string)
			if !ok {
				sessions.ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			account, err := accounts.ByID(accountID)
			if err != nil {
				sessions.ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Security: keep the password hash out of the request context
			account.PasswordHash = nil

			ctx := ctxkeys.WithAccount(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth ensures the caller is authenticated
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := ctxkeys.Account(r.Context())
		if account == nil {
			http.Redirect(w, r, "/auth", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireGuest ensures the caller is not authenticated
func RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := ctxkeys.Account(r.Context())
		if account != nil {
			cfg := ctxkeys.Config(r.Context())
			target := "/"
			if cfg != nil && cfg.DefaultLoginRedirect != "" {
				target = cfg.DefaultLoginRedirect
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}
