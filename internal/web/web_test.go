package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/boldtribe/kids-admin/internal/auth"
	"github.com/boldtribe/kids-admin/internal/config"
	"github.com/boldtribe/kids-admin/internal/db"
	"github.com/boldtribe/kids-admin/internal/model"
	"github.com/boldtribe/kids-admin/internal/platform"
	"github.com/boldtribe/kids-admin/internal/session"
	"github.com/boldtribe/kids-admin/internal/store"
)

const testSecret = "test-secret"

// newPanel wires a full router against the given upstream handler.
// The session manager is returned uninitialized so tests control the
// lifecycle state themselves.
func newPanel(t *testing.T, upstream http.Handler) (http.Handler, *session.Manager, *sql.DB) {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	database := db.NewTestDB(t)
	client := platform.NewClient(&config.Config{APIBaseURL: srv.URL}, database)
	sessions := session.NewManager(database, client)

	router, err := NewRouter(database, sessions, client, testSecret)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return router, sessions, database
}

// quietUpstream fails the test on any upstream call.
func quietUpstream(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	})
}

// seedLogin stores upstream credentials and initializes the session so
// it comes up authenticated.
func seedLogin(t *testing.T, database *sql.DB, sessions *session.Manager) {
	t.Helper()
	ctx := context.Background()

	if err := store.SetToken(ctx, database, "upstream-token"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	profile := model.Profile{Name: "Admin User", Username: "admin", Role: "Administrator"}
	if err := store.SetProfile(ctx, database, profile.Encode()); err != nil {
		t.Fatalf("SetProfile() error = %v", err)
	}
	if err := sessions.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
}

// sessionCookie mints a valid panel cookie.
func sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, "admin", "Admin User", "Administrator")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return &http.Cookie{Name: "token", Value: token}
}

func TestGuardRendersPlaceholderWhileUninitialized(t *testing.T) {
	router, _, _ := newPanel(t, quietUpstream(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customization", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(rec.Body.String(), "Loading") {
		t.Error("expected the loading placeholder in the response body")
	}
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	router, sessions, _ := newPanel(t, quietUpstream(t))
	if err := sessions.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customization", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestGuardRejectsCookieWithoutSession(t *testing.T) {
	// A valid panel cookie alone must not grant access once the
	// upstream session is gone.
	router, sessions, _ := newPanel(t, quietUpstream(t))
	if err := sessions.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/customization", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestGuardAllowsAuthenticatedRequests(t *testing.T) {
	router, sessions, database := newPanel(t, quietUpstream(t))
	seedLogin(t, database, sessions)

	req := httptest.NewRequest(http.MethodGet, "/customization", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Manage Categories") || !strings.Contains(body, "Add Category") {
		t.Error("expected both customization cards in the response body")
	}
}

func TestUnknownRouteLandsOnCustomization(t *testing.T) {
	router, sessions, database := newPanel(t, quietUpstream(t))
	seedLogin(t, database, sessions)

	req := httptest.NewRequest(http.MethodGet, "/customization/no-such-page", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/customization" {
		t.Errorf("Location = %q, want /customization", loc)
	}
}

func TestLoginPageRedirectsWhenAuthenticated(t *testing.T) {
	router, sessions, database := newPanel(t, quietUpstream(t))
	seedLogin(t, database, sessions)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/customization" {
		t.Errorf("Location = %q, want /customization", loc)
	}
}

func TestLoginSubmitRequiresBothFields(t *testing.T) {
	router, sessions, _ := newPanel(t, quietUpstream(t))
	if err := sessions.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	form := url.Values{"username": {"admin"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Please fill in all fields.") {
		t.Error("expected the missing-fields message in the response body")
	}
}

func TestLoginSubmitMintsCookieOnSuccess(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/admin/login" {
			t.Errorf("unexpected upstream call: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "fresh-token",
			"user":  map[string]any{"name": "Admin User", "username": "admin", "role": "Administrator"},
		})
	})

	router, sessions, database := newPanel(t, upstream)
	if err := sessions.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	form := url.Values{"username": {"admin"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/customization" {
		t.Errorf("Location = %q, want /customization", loc)
	}

	var minted bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.Value != "" {
			minted = true
			if _, err := auth.ValidateToken(testSecret, c.Value); err != nil {
				t.Errorf("minted cookie does not validate: %v", err)
			}
		}
	}
	if !minted {
		t.Error("expected a session cookie to be set")
	}

	stored, err := store.GetToken(context.Background(), database)
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if stored != "fresh-token" {
		t.Errorf("stored token = %q, want %q", stored, "fresh-token")
	}
	if !sessions.Authenticated() {
		t.Error("expected the session to be authenticated after login")
	}
}

func TestLoginSubmitShowsFriendlyAuthError(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "bad credentials"})
	})

	router, sessions, _ := newPanel(t, upstream)
	if err := sessions.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Login failed. Please check your username and password.") {
		t.Error("expected the friendly login failure message")
	}
	if sessions.Authenticated() {
		t.Error("session must stay anonymous after a rejected login")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	router, sessions, database := newPanel(t, quietUpstream(t))
	seedLogin(t, database, sessions)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.MaxAge != -1 {
			t.Errorf("cookie MaxAge = %d, want -1", c.MaxAge)
		}
	}

	token, err := store.GetToken(context.Background(), database)
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if token != "" {
		t.Errorf("stored token = %q, want empty", token)
	}
	if sessions.Authenticated() {
		t.Error("expected an anonymous session after logout")
	}
}

func TestManageCategoriesFiltersBySearch(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "1", "name": "Animals", "description": "Wild things"},
			{"id": "2", "name": "Colors", "description": "Bright shades"},
		})
	})

	router, sessions, database := newPanel(t, upstream)
	seedLogin(t, database, sessions)

	req := httptest.NewRequest(http.MethodGet, "/customization/manage-categories?q=animal", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Animals") {
		t.Error("expected the matching category in the response body")
	}
	if strings.Contains(body, "Colors") {
		t.Error("non-matching category should be filtered out")
	}
	if !strings.Contains(body, "2 total") {
		t.Error("total count must reflect the unfiltered list")
	}
}

func TestManageCategoriesShowsFailureBanner(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	router, sessions, database := newPanel(t, upstream)
	seedLogin(t, database, sessions)

	req := httptest.NewRequest(http.MethodGet, "/customization/manage-categories", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Failed to load categories") {
		t.Error("expected the load failure message in the response body")
	}
}

func TestAddCategoryValidationBlocksUpstream(t *testing.T) {
	// No field passes, so the platform must never be called.
	router, sessions, database := newPanel(t, quietUpstream(t))
	seedLogin(t, database, sessions)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/customization/add-category", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, msg := range []string{
		"Category name is required",
		"Item name is required",
		"Please upload an image",
		"Please record a voice message",
	} {
		if !strings.Contains(body, msg) {
			t.Errorf("expected %q in the response body", msg)
		}
	}
}

func TestAddCategoryKeepsEnteredValuesOnError(t *testing.T) {
	router, sessions, database := newPanel(t, quietUpstream(t))
	seedLogin(t, database, sessions)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("categoryName", "Animals")
	mw.WriteField("itemName", "Lion")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/customization/add-category", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `value="Animals"`) || !strings.Contains(body, `value="Lion"`) {
		t.Error("entered values must survive a failed submission")
	}
}

func TestEditCategoryPageReportsMissingItem(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false})
	})

	router, sessions, database := newPanel(t, upstream)
	seedLogin(t, database, sessions)

	req := httptest.NewRequest(http.MethodGet, "/customization/edit-category/42", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "No item data found for this category.") {
		t.Error("expected the missing-item message in the response body")
	}
}

func TestEditCategoryPagePrefillsForm(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"category": map[string]any{"id": "42", "name": "Animals"},
			"item": map[string]any{
				"id": "42", "name": "Animals", "itemName": "Lion",
				"imageUrl": "/uploads/lion.png",
			},
		})
	})

	router, sessions, database := newPanel(t, upstream)
	seedLogin(t, database, sessions)

	req := httptest.NewRequest(http.MethodGet, "/customization/edit-category/42", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `value="Animals"`) || !strings.Contains(body, `value="Lion"`) {
		t.Error("expected category and item names prefilled")
	}
	if !strings.Contains(body, "/uploads/lion.png") {
		t.Error("expected the existing image preview URL in the response body")
	}
}

func TestCategoriesProbeReportsCount(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"categories": []map[string]any{{"id": "1", "name": "Animals"}},
		})
	})

	router, sessions, database := newPanel(t, upstream)
	seedLogin(t, database, sessions)

	req := httptest.NewRequest(http.MethodGet, "/customization/api/categories", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding probe response: %v", err)
	}
	if payload.Count != 1 {
		t.Errorf("count = %d, want 1", payload.Count)
	}
}
