package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

const (
	// FormatJSON selects JSON-formatted log output.
	FormatJSON = "json"
	// FormatText selects logfmt-style text output.
	FormatText = "text"
)

// timestampFormat is the UTC timestamp format used by both formatters.
const timestampFormat = "2006-01-02T15:04:05.000Z"

// SupportedFormats lists the formats accepted by Configure.
var SupportedFormats = []string{FormatJSON, FormatText}

type utcFormatter struct {
	logrus.Formatter
}

func (u utcFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.UTC()
	return u.Formatter.Format(e)
}

// UTCJsonFormatter returns a formatter writing entries as JSON with UTC timestamps.
func UTCJsonFormatter() logrus.Formatter {
	return &utcFormatter{Formatter: &logrus.JSONFormatter{TimestampFormat: timestampFormat}}
}

// UTCTextFormatter returns a formatter writing entries as logfmt text with UTC timestamps.
func UTCTextFormatter() logrus.Formatter {
	return &utcFormatter{Formatter: &logrus.TextFormatter{TimestampFormat: timestampFormat}}
}

// Configure creates a new logger writing to out. An empty format selects text output, an empty
// or unparsable level selects info.
func Configure(out io.Writer, format, level string, hooks ...logrus.Hook) Logger {
	logger := logrus.New() //nolint:forbidigo
	configure(logger, out, format, level, hooks...)
	return FromLogrusEntry(logrus.NewEntry(logger))
}

func configure(logger *logrus.Logger, out io.Writer, format, level string, hooks ...logrus.Hook) {
	formatter := UTCTextFormatter()
	if format == FormatJSON {
		formatter = UTCJsonFormatter()
	}

	logrusLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logrusLevel = logrus.InfoLevel
	}

	logger.Out = out
	logger.SetLevel(logrusLevel)
	logger.Formatter = formatter
	for _, hook := range hooks {
		logger.Hooks.Add(hook)
	}
}
