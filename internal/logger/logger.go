package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log = newLogger()

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// SetDebug switches the shared logger to debug level. The DEBUG=1 env var
// does the same at startup.
func SetDebug(on bool) {
	if on {
		Log.SetLevel(logrus.DebugLevel)
	}
}

func Scope(name string) *logrus.Entry {
	return Log.WithField("scope", name)
}
