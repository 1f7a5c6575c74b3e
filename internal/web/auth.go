package web

import (
	"errors"
	"net/http"

	"github.com/boldtribe/kids-admin/internal/auth"
	"github.com/boldtribe/kids-admin/internal/platform"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if s.Sessions.Authenticated() {
		http.Redirect(w, r, "/customization", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", &PageData{Title: "Sign In"})
}

// LoginSubmit handles POST /login. Credentials are forwarded to the
// platform; a panel cookie is minted only on upstream success.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign In",
			Error: "Please fill in all fields.",
		})
		return
	}

	profile, err := s.Sessions.Login(r.Context(), username, password)
	if err != nil {
		msg := "An unexpected error occurred. Please try again."
		if errors.Is(err, platform.ErrAuthFailed) {
			msg = "Login failed. Please check your username and password."
		}
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign In",
			Error: msg,
		})
		return
	}

	token, err := auth.GenerateToken(s.Secret, profile.Username, profile.Name, profile.Role)
	if err != nil {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign In",
			Error: "Failed to start a session. Please try again.",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400, // 24 hours
	})

	http.Redirect(w, r, "/customization", http.StatusSeeOther)
}

// Logout handles POST /logout. Clears both the panel cookie and the
// persisted upstream credentials.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	s.Sessions.Logout(r.Context())
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
