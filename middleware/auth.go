package middleware

import (
	"context"
	"strings"
	"unicode"

	"wattwise-server/apperr"
	"wattwise-server/entities"
	"wattwise-server/identity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Principal is the verified caller and their profile as resolved by the gate.
type Principal struct {
	Claims  identity.Claims
	Profile entities.Profile
}

// unexported, collision-proof context key
type principalContextKeyType struct{}

var principalKey = principalContextKeyType{}

// PrincipalFromContext extracts the authenticated principal from context.
// The returned value is a copy; mutating it does not affect other readers.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// ProfileSyncer resolves the local profile for verified claims, creating it
// on first contact.
type ProfileSyncer interface {
	Sync(ctx context.Context, claims identity.Claims) (*entities.Profile, error)
}

type Gate struct {
	capability identity.Capability
	profiles   ProfileSyncer
	log        *zap.Logger
}

func NewGate(capability identity.Capability, profiles ProfileSyncer, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{capability: capability, profiles: profiles, log: log}
}

// RequireAuth admits a request only after its bearer token has been verified
// and the caller's profile resolved. Every rejection goes through c.Error so
// the translator renders it.
func (g *Gate) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		verifier, ok := g.capability.Verifier()
		if !ok {
			fail(c, apperr.Wrap(g.capability.Reason(), apperr.ServiceUnavailable,
				"Authentication service is unavailable. Identity provider credentials are not configured."))
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			fail(c, apperr.Unauthorizedf("No token provided. Please sign in first."))
			return
		}

		claims, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			msg := "Authentication failed. Invalid token."
			if identity.NeedsReauthentication(err) {
				msg = "Token expired or revoked. Please sign in again."
			}
			g.log.Debug("token rejected", zap.Error(err))
			fail(c, apperr.Wrap(err, apperr.Unauthorized, msg))
			return
		}

		profile, err := g.profiles.Sync(c.Request.Context(), *claims)
		if err != nil {
			fail(c, err)
			return
		}

		ctx := WithPrincipal(c.Request.Context(), Principal{Claims: *claims, Profile: *profile})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// bearerToken accepts exactly "Bearer <token>" with a single space and no
// whitespace inside or around the token.
func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" || strings.ContainsFunc(token, unicode.IsSpace) {
		return "", false
	}
	return token, true
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
