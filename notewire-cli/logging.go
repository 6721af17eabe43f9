package notewirecli

import (
	"os"

	"github.com/rs/zerolog"
)

func Logger(service Service) zerolog.Logger {
	level, err := zerolog.ParseLevel(CommonOpts.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().
		Str("service", service.Name).
		Str("version", service.Version).
		Logger()
}
