package httpapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/example/rabotim/internal/ctxutil"
)

var (
	// ErrMissingToken is returned when no bearer token is sent.
	ErrMissingToken = errors.New("authorization header with a bearer token is required")
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims are the parts of a Supabase access token the API reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator validates HS256 access tokens signed with the project's
// JWT secret. The subject claim is the user ID.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates an Authenticator. An empty issuer disables the
// issuer check.
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates a token and returns its claims.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Sign issues a token for userID. The CLI and tests use it; production
// tokens come from Supabase.
func (a *Authenticator) Sign(claims Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = a.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

const claimsKey = "claims"

// Middleware rejects unauthenticated requests and puts the user ID on the
// request context.
func (a *Authenticator) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, ErrMissingToken.Error())
		}

		claims, err := a.Verify(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals(claimsKey, claims)
		c.SetUserContext(ctxutil.WithActorID(c.UserContext(), claims.Subject))
		return c.Next()
	}
}

func actor(c *fiber.Ctx) string {
	return ctxutil.ActorFromContext(c.UserContext())
}

func claimsOf(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(claimsKey).(*Claims)
	return claims
}
