// Package logging wraps sirupsen/logrus the way nabbar-golib/logger does:
// a small Level enum mapped onto logrus levels, and an immutable-style
// Fields helper for structured attributes.
package logging

import "github.com/sirupsen/logrus"

// Level mirrors nabbar-golib/logger's Level type, trimmed to the
// severities this server actually emits.
type Level uint8

const (
	NilLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

var levelNames = map[string]Level{
	"fatal": FatalLevel,
	"error": ErrorLevel,
	"warn":  WarnLevel,
	"info":  InfoLevel,
	"debug": DebugLevel,
}

// ParseLevel resolves a CLI/config level name, defaulting to InfoLevel.
func ParseLevel(s string) Level {
	if lvl, ok := levelNames[s]; ok {
		return lvl
	}
	return InfoLevel
}

func (l Level) logrus() logrus.Level {
	switch l {
	case FatalLevel:
		return logrus.FatalLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case DebugLevel:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}
