package handler

import (
	"net/http"

	"github.com/lumenauth/lumen/internal/config"
	"github.com/lumenauth/lumen/internal/ctxkeys"
	"github.com/lumenauth/lumen/internal/ui"
)

type dashboardHandler struct {
	cfg *config.Config
}

func NewDashboardHandler(cfg *config.Config) *dashboardHandler {
	return &dashboardHandler{cfg: cfg}
}

func (h *dashboardHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	if ctxkeys.Account(r.Context()) != nil {
		http.Redirect(w, r, h.cfg.DefaultLoginRedirect, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
}

func (h *dashboardHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	account := ctxkeys.Account(r.Context())

	ui.Render(w, r, "dashboard", struct {
		AppName     string
		DisplayName string
		Email       string
		CSRFToken   string
	}{
		AppName:     h.cfg.AppName,
		DisplayName: account.DisplayName,
		Email:       account.Email,
		CSRFToken:   ctxkeys.CSRFToken(r.Context()),
	})
}
