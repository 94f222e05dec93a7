package identity

import (
	"context"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
)

// OIDCVerifier validates ID tokens from any OpenID Connect issuer using
// discovery. Plain OIDC has no revocation endpoint for ID tokens, so only
// signature, audience and expiry are checked.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	if issuer == "" || clientID == "" {
		return nil, errors.New("oidc config missing required fields: OIDC_ISSUER, OIDC_CLIENT_ID")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init oidc provider")
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (o *OIDCVerifier) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	idToken, err := o.verifier.Verify(ctx, token)
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return nil, errors.Wrap(ErrTokenExpired, err.Error())
		}
		if strings.Contains(err.Error(), "malformed jwt") {
			return nil, errors.Wrap(ErrTokenMalformed, err.Error())
		}
		return nil, errors.Wrap(err, "oidc token verification failed")
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "oidc claims parse failed")
	}

	return &Claims{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
