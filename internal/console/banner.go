// Package console prints the startup banner, adapted from
// nabbar-golib/console's sync.Map-backed ColorType into a fixed pair of
// named styles since this process only ever prints two kinds of line.
package console

import (
	"fmt"
	"sync"

	"github.com/fatih/color"
)

type style int

const (
	StyleInfo style = iota
	StyleWarn
)

var colors sync.Map

func init() {
	colors.Store(StyleInfo, color.New(color.FgGreen, color.Bold))
	colors.Store(StyleWarn, color.New(color.FgYellow, color.Bold))
}

func get(s style) *color.Color {
	v, _ := colors.Load(s)
	c, _ := v.(*color.Color)
	if c == nil {
		return color.New()
	}
	return c
}

// Printf prints a formatted, colorized line to stdout.
func Printf(s style, format string, args ...interface{}) {
	_, _ = get(s).Println(fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) { Printf(StyleInfo, format, args...) }
func Warn(format string, args ...interface{}) { Printf(StyleWarn, format, args...) }
