package logging

import (
	"wattwise-server/confs"

	"go.uber.org/zap"
)

// New returns the logger for the given environment: JSON output in
// production, human-readable output in development and nothing under tests.
func New(env string) (*zap.Logger, error) {
	switch env {
	case confs.EnvProduction:
		return zap.NewProduction()
	case confs.EnvTest:
		return zap.NewNop(), nil
	default:
		return zap.NewDevelopment()
	}
}
