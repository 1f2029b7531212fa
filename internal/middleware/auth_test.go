package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/database"
	"github.com/dukerupert/taskchamp/internal/gateway"
)

func setupAuthMiddlewareGateway(t *testing.T) *gateway.Local {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return gateway.New(db, gateway.DefaultConfig())
}

func signUp(t *testing.T, g *gateway.Local) string {
	t.Helper()
	sess, err := g.SignUp(context.Background(), gateway.SignUpParams{
		Email:         "alice@example.com",
		Password:      "Passw0rd",
		FullName:      "Alice",
		ContactNumber: "555-0100",
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return sess.Token
}

func TestRequireAuthNoCookie(t *testing.T) {
	g := setupAuthMiddlewareGateway(t)

	handler := RequireAuth(g)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want %q", loc, "/login")
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	g := setupAuthMiddlewareGateway(t)

	handler := RequireAuth(g)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	g := setupAuthMiddlewareGateway(t)
	token := signUp(t, g)

	var gotAC auth.AuthContext
	handler := RequireAuth(g)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", gotAC.Email, "alice@example.com")
	}
	if gotAC.AdminID == 0 {
		t.Error("AdminID not populated")
	}
}

func TestRequireAuthHTMXRedirect(t *testing.T) {
	g := setupAuthMiddlewareGateway(t)

	handler := RequireAuth(g)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if hxRedirect := rec.Header().Get("HX-Redirect"); hxRedirect != "/login" {
		t.Errorf("HX-Redirect = %q, want %q", hxRedirect, "/login")
	}
}

func TestRequireAPIAuthUnauthorized(t *testing.T) {
	g := setupAuthMiddlewareGateway(t)

	handler := RequireAPIAuth(g)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/members", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestOptionalAuth(t *testing.T) {
	g := setupAuthMiddlewareGateway(t)
	token := signUp(t, g)

	var signedIn bool
	handler := OptionalAuth(g)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, signedIn = auth.FromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/share", nil))
	if signedIn {
		t.Error("anonymous request should not carry AuthContext")
	}

	req := httptest.NewRequest("GET", "/share", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !signedIn {
		t.Error("signed-in request should carry AuthContext")
	}
}
