package web

import (
	"database/sql"
	"net/http"

	"github.com/boldtribe/kids-admin/internal/platform"
	"github.com/boldtribe/kids-admin/internal/session"
	webembed "github.com/boldtribe/kids-admin/web"
)

// NewRouter creates the panel router with all page routes registered.
func NewRouter(db *sql.DB, sessions *session.Manager, client *platform.Client, secret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Templates: templates,
		Sessions:  sessions,
		Platform:  client,
		Secret:    secret,
	}

	mux := http.NewServeMux()
	guard := s.RequireSession

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /dashboard", guard(http.HandlerFunc(s.Dashboard)))

	mux.Handle("GET /customization", guard(http.HandlerFunc(s.CustomizationHub)))
	mux.Handle("GET /customization/add-category", guard(http.HandlerFunc(s.AddCategoryPage)))
	mux.Handle("POST /customization/add-category", guard(http.HandlerFunc(s.AddCategorySubmit)))
	mux.Handle("GET /customization/manage-categories", guard(http.HandlerFunc(s.ManageCategoriesPage)))
	mux.Handle("GET /customization/edit-category/{id}", guard(http.HandlerFunc(s.EditCategoryPage)))
	mux.Handle("POST /customization/edit-category/{id}", guard(http.HandlerFunc(s.EditCategorySubmit)))
	mux.Handle("GET /customization/api/categories", guard(http.HandlerFunc(s.CategoriesProbe)))

	// Everything else, including "/", lands on the customization hub.
	mux.Handle("/", guard(http.HandlerFunc(s.CatchAll)))

	return mux, nil
}
