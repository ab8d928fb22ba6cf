package logging

import "github.com/sirupsen/logrus"

// Logger is the thin entry point handed to every component in the
// dispatcher: one underlying logrus.Logger, one default set of Fields.
type Logger struct {
	log    *logrus.Logger
	fields Fields
}

// New builds a Logger at the given level, writing structured text
// output the way nabbar-golib's logger configures logrus by default.
func New(level Level) *Logger {
	l := logrus.New()
	l.SetLevel(level.logrus())
	return &Logger{log: l, fields: NewFields()}
}

// With returns a derived Logger carrying additional fields, leaving the
// receiver untouched.
func (l *Logger) With(fields Fields) *Logger {
	merged := l.fields.clone()
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{log: l.log, fields: merged}
}

func (l *Logger) entry() *logrus.Entry {
	return l.log.WithFields(logrus.Fields(l.fields))
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry().Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry().Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry().Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry().Errorf(format, args...) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.entry().Fatalf(format, args...) }
