// Package config loads service settings from the environment and sets up logging.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Logging is embedded by every entrypoint config.
type Logging struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=text"` // text | json
}

// Load reads an optional .env file (or FARMAI_ENV_FILE) and decodes the
// environment into target. Variables already set win over the file.
func Load(target any) error {
	file := strings.TrimSpace(os.Getenv("FARMAI_ENV_FILE"))
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).WithField("file", file).Warn("config: env file ignored")
	}
	if err := envdecode.Decode(target); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return err
	}
	return nil
}

// SetupLogging configures the standard logrus logger.
func SetupLogging(l Logging) {
	level, err := logrus.ParseLevel(strings.TrimSpace(l.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if strings.EqualFold(l.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)
	if err != nil && l.Level != "" {
		logrus.WithField("level", l.Level).Warn("config: unknown log level, using info")
	}
}
