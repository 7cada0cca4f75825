package config

import "github.com/sirupsen/logrus"

// NewLogger constructs the single leveled logger threaded through every
// component, per the client_config.log_level setting. An unrecognized level
// falls back to info rather than failing startup.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}
