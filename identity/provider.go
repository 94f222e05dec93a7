package identity

import (
	"context"

	"wattwise-server/confs"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FromConfig builds the verifier capability for the configured provider.
// Outside production a configuration failure degrades to a disabled
// capability so the process still serves public routes; in production it is
// returned as an error and startup must abort.
func FromConfig(ctx context.Context, cfg confs.Config, log *zap.Logger) (Capability, error) {
	v, err := newVerifier(ctx, cfg)
	if err == nil {
		log.Info("identity verifier initialised", zap.String("provider", cfg.IdentityProvider))
		return Enabled(v), nil
	}

	if cfg.IsProduction() {
		return Disabled(err), err
	}

	log.Warn("identity verifier NOT initialised; protected routes will return 503 until credentials are added",
		zap.String("provider", cfg.IdentityProvider),
		zap.Error(err),
	)
	return Disabled(err), nil
}

func newVerifier(ctx context.Context, cfg confs.Config) (Verifier, error) {
	switch cfg.IdentityProvider {
	case "", "firebase":
		return NewFirebaseVerifier(ctx, FirebaseCredentials{
			ServiceAccountPath: cfg.FirebaseServiceAccountPath,
			ProjectID:          cfg.FirebaseProjectID,
			ClientEmail:        cfg.FirebaseClientEmail,
			PrivateKey:         cfg.FirebasePrivateKey,
		})
	case "oidc":
		return NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
	default:
		return nil, errors.Errorf("unknown identity provider: %s", cfg.IdentityProvider)
	}
}
