package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lumenauth/lumen/internal/config"
	"github.com/lumenauth/lumen/internal/ctxkeys"
	"github.com/lumenauth/lumen/internal/middleware"
	"github.com/lumenauth/lumen/internal/service"
	"github.com/lumenauth/lumen/internal/ui"
	"github.com/lumenauth/lumen/internal/validation"
)

// issueResponse is the issuance endpoint's JSON shape.
type issueResponse struct {
	Success bool   `json:"success"`
	Heading string `json:"heading,omitempty"`
	Message string `json:"message"`
}

type authHandler struct {
	magic    *service.MagicLinkService
	sessions *service.SessionService
	cfg      *config.Config
}

func NewAuthHandler(magic *service.MagicLinkService, sessions *service.SessionService, cfg *config.Config) *authHandler {
	return &authHandler{
		magic:    magic,
		sessions: sessions,
		cfg:      cfg,
	}
}

type loginPageData struct {
	AppName   string
	CSRFToken string
	Error     string
}

func (h *authHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, "")
}

func (h *authHandler) renderLogin(w http.ResponseWriter, r *http.Request, errMsg string) {
	ui.Render(w, r, "login", loginPageData{
		AppName:   h.cfg.AppName,
		CSRFToken: ctxkeys.CSRFToken(r.Context()),
		Error:     errMsg,
	})
}

// SendMagicLink handles an issuance request: {identifier, antiforgery_token}.
// Business rejections answer 423 so they cannot be mistaken for delivery.
// Known and unknown identifiers get byte-identical success answers, so the
// endpoint cannot be used to probe which accounts exist.
func (h *authHandler) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	identifier, antiforgery, redirectTo, asJSON := readIssueRequest(r)

	if !middleware.ValidCSRFToken(ctxkeys.CSRFToken(r.Context()), antiforgery) {
		h.reject(w, r, asJSON, http.StatusLocked, "Verification failed. Please reload the page and try again.")
		return
	}

	err := validation.ValidateIdentifier(identifier)
	if err != nil {
		h.reject(w, r, asJSON, http.StatusLocked, "Please provide your email or username to get a sign-in link.")
		return
	}

	result, err := h.magic.RequestLink(r.Context(), service.IssueRequest{
		Identifier: identifier,
		RedirectTo: redirectTo,
		IP:         middleware.GetClientIP(r),
	})

	if err != nil {
		var rateLimited *service.RateLimitedError

		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			// Success-shaped on purpose: do not reveal whether the account exists.
			slog.Warn("magic link requested for unknown identifier", "ip", middleware.GetClientIP(r))
			h.sent(w, r, asJSON, genericSentMessage)
		case errors.Is(err, service.ErrFeatureDisabled):
			h.reject(w, r, asJSON, http.StatusLocked, "Sign-in via link is not available.")
		case errors.As(err, &rateLimited):
			h.reject(w, r, asJSON, http.StatusLocked,
				fmt.Sprintf("You are trying too much. Please try again after %d minutes.", int(rateLimited.RetryAfter.Minutes())))
		case errors.Is(err, service.ErrIneligible):
			h.reject(w, r, asJSON, http.StatusLocked, "Sorry, you cannot sign in via magic link. Please use the regular login form.")
		default:
			slog.Error("magic link issuance failed", "error", err)
			h.reject(w, r, asJSON, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return
	}

	if !result.Sent {
		slog.Warn("magic link issued but delivery failed", "address", result.Address)
	}

	// Same message as the unknown-account path: echoing the registered
	// address back would confirm the account exists.
	h.sent(w, r, asJSON, genericSentMessage)
}

const genericSentMessage = "If that account exists, we just emailed a sign-in link to its registered address."

// readIssueRequest pulls the issuance fields from either a JSON body or a
// form post, and reports which shape the caller spoke.
func readIssueRequest(r *http.Request) (identifier, antiforgery, redirectTo string, asJSON bool) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Identifier       string `json:"identifier"`
			AntiforgeryToken string `json:"antiforgery_token"`
			RedirectTo       string `json:"redirect_to"`
		}
		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil {
			return "", "", "", true
		}
		return strings.TrimSpace(body.Identifier), body.AntiforgeryToken, strings.TrimSpace(body.RedirectTo), true
	}

	return strings.TrimSpace(r.FormValue("identifier")), r.FormValue("antiforgery_token"), strings.TrimSpace(r.FormValue("redirect_to")), false
}

func (h *authHandler) sent(w http.ResponseWriter, r *http.Request, asJSON bool, message string) {
	if asJSON {
		writeJSON(w, http.StatusOK, issueResponse{
			Success: true,
			Heading: "Check your inbox",
			Message: message,
		})
		return
	}
	ui.Render(w, r, "sent", struct {
		AppName string
		Message string
	}{h.cfg.AppName, message})
}

func (h *authHandler) reject(w http.ResponseWriter, r *http.Request, asJSON bool, status int, message string) {
	if asJSON {
		writeJSON(w, status, issueResponse{Success: false, Message: message})
		return
	}
	// Form posts carry the rejection status too; the body is still the
	// login page with the message inline.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	h.renderLogin(w, r, message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// RedeemMagicLink exchanges ?token=... for a session. Every business
// failure falls through to the regular login page with nothing surfaced;
// only store unavailability is a hard error.
func (h *authHandler) RedeemMagicLink(w http.ResponseWriter, r *http.Request) {
	tokenValue := r.URL.Query().Get("token")
	if tokenValue == "" {
		h.renderLogin(w, r, "")
		return
	}

	sc := service.SessionContext{IP: middleware.GetClientIP(r)}
	if account := ctxkeys.Account(r.Context()); account != nil {
		sc.AccountID = account.ID
	}

	result, err := h.magic.Redeem(w, sc, tokenValue)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenNotFound),
			errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrIneligible),
			errors.Is(err, service.ErrSessionBind),
			errors.Is(err, service.ErrFeatureDisabled):
			slog.Warn("magic link redemption failed", "error", err, "ip", sc.IP)
			h.renderLogin(w, r, "")
		default:
			slog.Error("magic link redemption failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	target := result.RedirectTo
	if r.URL.Query().Get("redirect") == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// PasswordAuth is the regular login flow that magic-link failures fall
// through to.
func (h *authHandler) PasswordAuth(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.renderLogin(w, r, "Email and password are required")
		return
	}

	account, err := h.sessions.Login(email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.renderLogin(w, r, "Invalid email or password")
			return
		}
		slog.Error("password login failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !h.sessions.Establish(w, account) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	slog.Info("user logged in via password", "account_id", account.ID)
	http.Redirect(w, r, h.cfg.DefaultLoginRedirect, http.StatusSeeOther)
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSessionCookie(w)
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
}
