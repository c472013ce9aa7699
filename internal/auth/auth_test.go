package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func newTestApp(t *testing.T, settings Settings) *fiber.App {
	t.Helper()
	gate, err := New(settings)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	app := fiber.New()
	app.Post("/protected", gate.Middleware(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestNewRejectsMissingSecrets(t *testing.T) {
	tests := []Settings{
		{Scheme: SchemeBasic, Username: "user"},
		{Scheme: SchemeBasic, Password: "pass"},
		{Scheme: SchemeBearer},
		{Scheme: "digest", Username: "user", Password: "pass"},
	}
	for _, settings := range tests {
		if _, err := New(settings); err == nil {
			t.Fatalf("expected error for %+v", settings)
		}
	}
}

func TestParseScheme(t *testing.T) {
	for raw, want := range map[string]Scheme{"basic": SchemeBasic, " Bearer ": SchemeBearer} {
		got, err := ParseScheme(raw)
		if err != nil || got != want {
			t.Fatalf("ParseScheme(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseScheme("oauth"); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
}

func TestAuthenticateBasic(t *testing.T) {
	gate, err := New(Settings{Scheme: SchemeBasic, Username: "user", Password: "pass"})
	if err != nil {
		t.Fatal(err)
	}
	if err := gate.Authenticate(Credentials{Username: "user", Password: "pass"}); err != nil {
		t.Fatalf("valid credentials rejected: %v", err)
	}
	for _, creds := range []Credentials{
		{},
		{Username: "user"},
		{Username: "user", Password: "wrong"},
		{Username: "wrong", Password: "pass"},
		{Token: "pass"},
	} {
		if err := gate.Authenticate(creds); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for %+v, got %v", creds, err)
		}
	}
}

func TestAuthenticateBearer(t *testing.T) {
	gate, err := New(Settings{Scheme: SchemeBearer, Token: "secret-token", Username: "user", Password: "pass"})
	if err != nil {
		t.Fatal(err)
	}
	if err := gate.Authenticate(Credentials{Token: "secret-token"}); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if err := gate.Authenticate(Credentials{Username: "user", Password: "pass"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("basic credentials must not pass a bearer gate, got %v", err)
	}
}

func TestBasicMiddlewareFailuresLookAlike(t *testing.T) {
	app := newTestApp(t, Settings{Scheme: SchemeBasic, Username: "user", Password: "pass"})

	tests := map[string]string{
		"missing":        "",
		"wrong username": basicHeader("nobody", "pass"),
		"wrong password": basicHeader("user", "nope"),
		"bearer instead": "Bearer pass",
		"garbage":        "Basic %%%",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.StatusCode)
			}
			if got := resp.Header.Get("WWW-Authenticate"); got != "Basic" {
				t.Fatalf("unexpected challenge %q", got)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["detail"] != "Invalid credentials" {
				t.Fatalf("unexpected body %v", body)
			}
		})
	}
}

func TestBasicMiddlewareAllowsValidCredentials(t *testing.T) {
	app := newTestApp(t, Settings{Scheme: SchemeBasic, Username: "user", Password: "pa:ss"})

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("Authorization", basicHeader("user", "pa:ss"))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d %s", resp.StatusCode, body)
	}
}

func TestBearerMiddleware(t *testing.T) {
	app := newTestApp(t, Settings{Scheme: SchemeBearer, Token: "secret-token"})

	tests := []struct {
		header string
		want   int
	}{
		{"Bearer secret-token", http.StatusOK},
		{"bearer secret-token", http.StatusOK},
		{"Bearer wrong", http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
		{basicHeader("user", "secret-token"), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/protected", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Fatalf("header %q: expected %d, got %d", tt.header, tt.want, resp.StatusCode)
		}
		if tt.want == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("header %q: missing bearer challenge", tt.header)
		}
	}
}
