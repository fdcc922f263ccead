package logger

import (
	"go.uber.org/zap"
)

// New builds the process logger: JSON production output for env "production",
// human-readable development output otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}
