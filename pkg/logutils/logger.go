package logutils

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger.
var Log = logrus.New()

// Fields is the type of logrus.Fields.
type Fields = logrus.Fields

//nolint:gochecknoinits // This is the only place where we should set the log format.
func init() {
	Log.SetLevel(logrus.InfoLevel)
	Log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat:           "2006-01-02 15:04:05",
		EnvironmentOverrideColors: true,
		FullTimestamp:             true,
	})
}

// Configure applies a level name ("debug", "info", ...) and output. An
// unknown level leaves the current level untouched and is returned as an error.
func Configure(level string, out io.Writer) error {
	if out != nil {
		Log.SetOutput(out)
	}
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Log.SetLevel(lvl)
	return nil
}

// Component returns an entry tagged with the emitting component.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
