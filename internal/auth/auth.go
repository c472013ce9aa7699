package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

type Scheme string

const (
	SchemeBasic  Scheme = "basic"
	SchemeBearer Scheme = "bearer"
)

const (
	basicDetail  = "Invalid credentials"
	bearerDetail = "Invalid or missing token"
)

var ErrUnauthorized = errors.New("unauthorized")

func ParseScheme(raw string) (Scheme, error) {
	switch s := Scheme(strings.ToLower(strings.TrimSpace(raw))); s {
	case SchemeBasic, SchemeBearer:
		return s, nil
	default:
		return "", fmt.Errorf("unsupported auth scheme %q", raw)
	}
}

// Settings holds the secrets of the active scheme. Only the fields of the
// selected scheme are consulted.
type Settings struct {
	Scheme   Scheme
	Username string
	Password string
	Token    string
}

// Credentials are what a caller presented.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Gate checks inbound credentials against one configured scheme. It is
// read-only after construction and safe for concurrent use.
type Gate struct {
	settings Settings
}

func New(settings Settings) (*Gate, error) {
	switch settings.Scheme {
	case SchemeBasic:
		if settings.Username == "" || settings.Password == "" {
			return nil, errors.New("basic auth requires a username and a password")
		}
	case SchemeBearer:
		if settings.Token == "" {
			return nil, errors.New("bearer auth requires a token")
		}
	default:
		return nil, fmt.Errorf("unsupported auth scheme %q", settings.Scheme)
	}
	return &Gate{settings: settings}, nil
}

func (g *Gate) Scheme() Scheme {
	return g.settings.Scheme
}

// Authenticate returns ErrUnauthorized without saying which part of the
// credentials was wrong.
func (g *Gate) Authenticate(creds Credentials) error {
	var ok bool
	switch g.settings.Scheme {
	case SchemeBasic:
		userOK := secureEqual(creds.Username, g.settings.Username)
		passOK := secureEqual(creds.Password, g.settings.Password)
		ok = userOK && passOK
	case SchemeBearer:
		ok = secureEqual(creds.Token, g.settings.Token)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// Middleware rejects unauthenticated requests with 401 before any handler
// after it runs.
func (g *Gate) Middleware() fiber.Handler {
	if g.settings.Scheme == SchemeBearer {
		return g.bearer
	}
	return basicauth.New(basicauth.Config{
		Authorizer: func(user, pass string) bool {
			return g.Authenticate(Credentials{Username: user, Password: pass}) == nil
		},
		Unauthorized: func(c *fiber.Ctx) error {
			return unauthorized(c, "Basic", basicDetail)
		},
	})
}

func (g *Gate) bearer(c *fiber.Ctx) error {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	var token string
	if len(header) > len("bearer ") && strings.EqualFold(header[:len("bearer ")], "bearer ") {
		token = strings.TrimSpace(header[len("bearer "):])
	}
	if err := g.Authenticate(Credentials{Token: token}); err != nil {
		return unauthorized(c, "Bearer", bearerDetail)
	}
	return c.Next()
}

func unauthorized(c *fiber.Ctx, challenge, detail string) error {
	c.Set(fiber.HeaderWWWAuthenticate, challenge)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": detail})
}

// secureEqual compares in constant time regardless of input lengths.
func secureEqual(got, want string) bool {
	g := sha256.Sum256([]byte(got))
	w := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(g[:], w[:]) == 1
}
