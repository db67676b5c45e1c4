package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rpupo63/team-portfolio-backend/models"
	"github.com/rs/zerolog/log"
)

// Claims is the access token payload issued by the auth service.
// The subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 bearer tokens.
type TokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

func NewTokenVerifier(secret, issuer, audience string) (TokenVerifier, error) {
	if secret == "" {
		return TokenVerifier{}, fmt.Errorf("JWT_SECRET is required")
	}
	return TokenVerifier{secret: []byte(secret), issuer: issuer, audience: audience, leeway: 30 * time.Second}, nil
}

// Verify parses tokenString and returns the caller it identifies.
func (v TokenVerifier) Verify(tokenString string) (models.Caller, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return models.Caller{}, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Caller{}, fmt.Errorf("subject is not a user id: %w", err)
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		return models.Caller{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return models.Caller{UserID: userID, Role: role}, nil
}

// Sign issues a token for caller. Used by tests and local tooling.
func (v TokenVerifier) Sign(caller models.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UserID.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

type authMiddleware struct {
	responder Responder
	verifier  TokenVerifier
}

func newAuthMiddleware(verifier TokenVerifier) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()
	return authMiddleware{
		responder: NewResponder(logger),
		verifier:  verifier,
	}
}

func (m authMiddleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			m.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		caller, err := m.verifier.Verify(token)
		if err != nil {
			m.responder.WriteError(w, errs.NewInvalidTokenError(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(ctxWithCaller(r.Context(), caller)))
	})
}

// requireRole lets the request through only when the authenticated caller holds one of roles.
func (m authMiddleware) requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := ctxGetCaller(r.Context())
			if !ok {
				m.responder.WriteError(w, errs.NewMissingTokenError())
				return
			}
			if !caller.Role.In(roles...) {
				m.responder.WriteError(w, errs.NewInsufficientRoleError(names...))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
