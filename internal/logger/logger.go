// Package logger configures the process-wide logrus logger.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Init configures the standard logrus logger from the environment:
// LOG_LEVEL selects the level (default info), LOG_FILE redirects output
// to a rotating file instead of stdout.
func Init() *logrus.Logger {
	log := logrus.StandardLogger()

	level := logrus.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if lvl, err := logrus.ParseLevel(strings.ToLower(v)); err == nil {
			level = lvl
		}
	}
	log.SetLevel(level)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	if file := os.Getenv("LOG_FILE"); file != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename: file,
			MaxSize:  100,
			MaxAge:   28,
			Compress: true,
		})
	} else {
		log.SetOutput(os.Stdout)
	}

	return log
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
