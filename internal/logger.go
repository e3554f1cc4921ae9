package internal

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var once sync.Once
var logger *logrus.Logger

// GetLogger returns the process-wide townrec logger. It starts at warn level
// in text format until ConfigureLogger applies the loaded config.
func GetLogger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.Out = os.Stdout
		logger.SetLevel(logrus.WarnLevel)
		logger.SetFormatter(newFormatter(LogFormatText))
	})

	return logger
}

func SetLogLevel(level logrus.Level) {
	GetLogger().SetLevel(level)
}

// ConfigureLogger switches the townrec logger to format and stamps fields on
// every entry.
func ConfigureLogger(format string, fields logrus.Fields) error {
	return configure(GetLogger(), format, fields)
}

func configure(l *logrus.Logger, format string, fields logrus.Fields) error {
	switch format {
	case "", LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	l.SetFormatter(newFormatter(format))
	hooks := make(logrus.LevelHooks)
	if len(fields) > 0 {
		hooks.Add(staticFields(fields))
	}
	l.ReplaceHooks(hooks)
	return nil
}

func newFormatter(format string) logrus.Formatter {
	if format == LogFormatJSON {
		return &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
				logrus.FieldKeyMsg:  "message",
			},
		}
	}
	return &logrus.TextFormatter{
		FullTimestamp: true,
		PadLevelText:  true,
	}
}

// staticFields adds its fields to entries that do not already carry them.
type staticFields logrus.Fields

func (f staticFields) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (f staticFields) Fire(entry *logrus.Entry) error {
	for k, v := range f {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}

// LeveledLogrus adapts logrus to the key/value logger retryablehttp expects.
type LeveledLogrus struct {
	*logrus.Logger
}

func NewLeveledLogrus(logger *logrus.Logger) *LeveledLogrus {
	return &LeveledLogrus{Logger: logger}
}

func (l *LeveledLogrus) entry(keysAndValues []interface{}) *logrus.Entry {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return l.WithFields(fields)
}

func (l *LeveledLogrus) Error(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Error(msg)
}

func (l *LeveledLogrus) Info(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Info(msg)
}

func (l *LeveledLogrus) Warn(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Warn(msg)
}

func (l *LeveledLogrus) Debug(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Debug(msg)
}
